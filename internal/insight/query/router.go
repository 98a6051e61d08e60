// Package query answers free-text questions about a user's finances. A
// fixed, ordered rule list extracts intent plus any month or date
// references and dispatches to the anomaly explainer, the segmenter, or
// generic retrieval backed by the language model with a deterministic
// rule-based fallback. Every answer carries a debug trace naming the rule
// and engine that produced it.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/anomaly"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/features"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/segment"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

// Store is the read/write access the router needs from the record store.
type Store interface {
	SummaryStore
	GetUser(ctx context.Context, id int64) (core.User, error)
	MonthTransactions(ctx context.Context, userID int64, month string) ([]core.TransactionDetail, error)
	LatestMonth(ctx context.Context, userID int64) (string, error)
}

// Explainer produces the anomaly explanation for a specific date.
type Explainer interface {
	ExplainDate(ctx context.Context, userID int64, date string, threshold float64) (anomaly.Explanation, error)
}

// Chatter is one request/response exchange with the language model.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Answer is the router's output: prose for the user and a debug trace for
// operators.
type Answer struct {
	Text  string `json:"answer"`
	Debug string `json:"debug_info"`
}

// question is one parsed request flowing through the rules.
type question struct {
	userID int64
	raw    string
	lower  string
	months []string
	date   string
}

type rule struct {
	name   string
	match  func(q question) bool
	handle func(ctx context.Context, q question) (Answer, error)
}

// Router dispatches questions. llm may be nil, in which case every
// generic question takes the rule-based path.
type Router struct {
	store     Store
	builder   *features.Builder
	explainer Explainer
	llm       Chatter
	threshold float64
	logger    *log.Logger
	rules     []rule
}

func NewRouter(store Store, builder *features.Builder, explainer Explainer, llm Chatter, threshold float64, logger *log.Logger) *Router {
	if threshold <= 0 {
		threshold = anomaly.DefaultThreshold
	}
	r := &Router{
		store:     store,
		builder:   builder,
		explainer: explainer,
		llm:       llm,
		threshold: threshold,
		logger:    logger.WithComponent(log.ComponentQuery),
	}
	r.rules = []rule{
		{name: "greeting", match: matchGreeting, handle: r.handleGreeting},
		{name: "privacy", match: matchCrossUser, handle: r.handlePrivacy},
		{name: "segment_compare", match: matchSegmentCompare, handle: r.handleSegmentCompare},
		{name: "anomaly_explain", match: matchAnomalyExplain, handle: r.handleAnomalyExplain},
		{name: "segment_single", match: matchSegmentSingle, handle: r.handleSegmentSingle},
		{name: "generic", match: func(question) bool { return true }, handle: r.handleGeneric},
	}
	return r
}

// Answer routes one question through the rule list.
func (r *Router) Answer(ctx context.Context, userID int64, text string) (Answer, error) {
	raw := strings.TrimSpace(text)
	q := question{
		userID: userID,
		raw:    raw,
		lower:  strings.ToLower(raw),
		months: ExtractMonths(raw),
		date:   ExtractDate(raw),
	}

	for _, rl := range r.rules {
		if !rl.match(q) {
			continue
		}
		ans, err := rl.handle(ctx, q)
		if err != nil {
			return Answer{}, fmt.Errorf("rule %s: %w", rl.name, err)
		}
		r.logger.InfoContext(ctx, "answered question",
			log.FieldUserID, userID,
			log.FieldOperation, rl.name,
			log.FieldDebugTag, ans.Debug,
		)
		return ans, nil
	}
	// Unreachable: the generic rule matches everything.
	return Answer{}, errors.New("no rule matched")
}

// ---- matchers ----

var greetingWords = []string{"hi", "hii", "hiii", "hello", "hey", "hola", "namaste"}

func matchGreeting(q question) bool {
	for _, w := range greetingWords {
		if q.lower == w || strings.HasPrefix(q.lower, w+" ") {
			return true
		}
	}
	return false
}

// crossUserPhrases is a text-level heuristic only. The real boundary is
// the per-user filtering in every storage query.
var crossUserPhrases = []string{
	"other user",
	"another user",
	"someone else",
	"other people",
	"other account",
	"other person",
	"my friend's account",
	"my friends account",
	"friend's account",
}

func matchCrossUser(q question) bool {
	for _, p := range crossUserPhrases {
		if strings.Contains(q.lower, p) {
			return true
		}
	}
	return false
}

func matchSegmentCompare(q question) bool {
	if len(q.months) < 2 {
		return false
	}
	return strings.Contains(q.lower, "compare") ||
		strings.Contains(q.lower, "difference") ||
		strings.Contains(q.lower, "change")
}

func matchAnomalyExplain(q question) bool {
	if q.date == "" {
		return false
	}
	return strings.Contains(q.lower, "why") ||
		strings.Contains(q.lower, "anomal") ||
		strings.Contains(q.lower, "spike") ||
		strings.Contains(q.lower, "unusual")
}

func matchSegmentSingle(q question) bool {
	return strings.Contains(q.lower, "cluster") ||
		strings.Contains(q.lower, "segment") ||
		strings.Contains(q.lower, "spending profile")
}

// ---- handlers ----

func (r *Router) displayName(ctx context.Context, userID int64) string {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		user = core.User{ID: userID}
	}
	return user.DisplayName()
}

func (r *Router) handleGreeting(ctx context.Context, q question) (Answer, error) {
	text := fmt.Sprintf(
		"Hi %s, I'm Rcube, your personal finance assistant. You can ask me things like:\n"+
			"- \"How much did I spend on Pizza in 2025-12?\"\n"+
			"- \"What was my top category this month?\"\n"+
			"- \"Why was 2025-12-03 flagged as an anomaly?\"",
		r.displayName(ctx, q.userID))
	return Answer{Text: text, Debug: "greeting_only"}, nil
}

func (r *Router) handlePrivacy(ctx context.Context, q question) (Answer, error) {
	return Answer{
		Text: "For privacy and security reasons, I can only show information for your own " +
			"account, not other users.",
		Debug: "blocked_for_privacy",
	}, nil
}

func (r *Router) handleSegmentCompare(ctx context.Context, q question) (Answer, error) {
	m1, m2 := q.months[0], q.months[1]
	text, err := r.describeSegmentChange(ctx, q.userID, m1, m2)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Debug: fmt.Sprintf("segment_compare; %s_vs_%s", m1, m2)}, nil
}

// describeSegmentChange compares the rule-based segment across two months
// and says whether the pattern changed.
func (r *Router) describeSegmentChange(ctx context.Context, userID int64, month1, month2 string) (string, error) {
	v1, err := r.builder.Build(ctx, userID, month1)
	if err != nil {
		return "", fmt.Errorf("features for %s: %w", month1, err)
	}
	v2, err := r.builder.Build(ctx, userID, month2)
	if err != nil {
		return "", fmt.Errorf("features for %s: %w", month2, err)
	}
	seg1 := segment.Classify(v1)
	seg2 := segment.Classify(v2)
	dom1, _, ok1 := v1.Dominant()
	dom2, _, ok2 := v2.Dominant()

	var parts []string
	parts = append(parts, fmt.Sprintf(
		"In %s, your spending segment was '%s', with a total of %.2f.",
		month1, seg1.Label, v1.GrandTotal))
	if ok1 {
		parts = append(parts, fmt.Sprintf("The dominant category was %s.", dom1))
	}
	parts = append(parts, fmt.Sprintf(
		"In %s, your spending segment is '%s', with a total of %.2f.",
		month2, seg2.Label, v2.GrandTotal))
	if ok2 {
		parts = append(parts, fmt.Sprintf("The dominant category is %s.", dom2))
	}
	if seg1.Label != seg2.Label || dom1 != dom2 {
		parts = append(parts, "This means your spending pattern changed between the two months.")
	} else {
		parts = append(parts, "Overall, your spending pattern is quite similar between these months.")
	}
	return strings.Join(parts, " "), nil
}

func (r *Router) handleAnomalyExplain(ctx context.Context, q question) (Answer, error) {
	exp, err := r.explainer.ExplainDate(ctx, q.userID, q.date, r.threshold)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:  exp.Text,
		Debug: fmt.Sprintf("anomaly_explain; date=%s; %s", q.date, exp.Kind),
	}, nil
}

func (r *Router) handleSegmentSingle(ctx context.Context, q question) (Answer, error) {
	var month string
	if len(q.months) > 0 {
		month = q.months[0]
	} else {
		latest, err := r.store.LatestMonth(ctx, q.userID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Answer{}, fmt.Errorf("latest month: %w", err)
		}
		month = latest
	}
	if month == "" {
		return Answer{
			Text:  "I don't yet have enough data to build your spending segment.",
			Debug: "no_data_for_cluster",
		}, nil
	}

	v, err := r.builder.Build(ctx, q.userID, month)
	if err != nil {
		return Answer{}, fmt.Errorf("features for %s: %w", month, err)
	}
	res := segment.Classify(v)

	text := fmt.Sprintf("In %s, your spending segment is '%s'.", month, res.Label)
	if dom, _, ok := v.Dominant(); ok {
		text += fmt.Sprintf(" Your dominant category is %s.", dom)
	}
	return Answer{Text: text, Debug: fmt.Sprintf("segment_single; month=%s", month)}, nil
}

func (r *Router) handleGeneric(ctx context.Context, q question) (Answer, error) {
	rc, note, err := r.retrieve(ctx, q.userID, q.raw)
	if err != nil {
		return Answer{}, err
	}
	if rc == nil {
		return Answer{
			Text:  "I could not find any transactions for you yet, so I cannot answer that question.",
			Debug: fmt.Sprintf("retrieval_failed; %s", note),
		}, nil
	}

	prompt := BuildPrompt(q.raw, rc)

	llmErr := errors.New("model client not configured")
	var text string
	if r.llm != nil {
		text, llmErr = r.llm.Chat(ctx, systemPrompt, prompt)
		if llmErr == nil && strings.TrimSpace(text) == "" {
			llmErr = errors.New("empty answer from model")
		}
	}
	if llmErr != nil {
		fallback := ruleBasedAnswer(q.raw, rc)
		return Answer{
			Text:  fallback,
			Debug: fmt.Sprintf("%s; engine=rule_based; ollama_error=%v", note, llmErr),
		}, nil
	}
	return Answer{
		Text:  strings.TrimSpace(text),
		Debug: fmt.Sprintf("%s; engine=ollama", note),
	}, nil
}
