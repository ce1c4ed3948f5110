package context

import (
	"fmt"
	"math"
	"strings"

	"github.com/haasonsaas/push/pkg/models"
)

// ContextMode selects whether the Manager is allowed to digest messages
// that don't fit the active budget, or must instead surface a provider
// error. See Trim.
type ContextMode string

const (
	ModeGraceful ContextMode = "graceful"
	ModeNone     ContextMode = "none"
)

// messageOverheadTokens is the fixed per-message bookkeeping cost (role
// marker, separators) added on top of content-derived tokens.
const messageOverheadTokens = 4

// charsPerToken is the character-to-token ratio used for the cheap
// estimate; it is not meant to match any provider's tokenizer exactly.
const charsPerToken = 3.5

// EstimateMessageTokens returns the estimated token cost of one message:
// ceil(charCount/3.5) for its content plus a fixed 4-token overhead.
func EstimateMessageTokens(m *models.Message) int {
	if m == nil {
		return messageOverheadTokens
	}
	chars := len(m.Content)
	for _, tc := range m.ToolCalls {
		chars += len(tc.Name) + len(tc.Input)
	}
	for _, tr := range m.ToolResults {
		chars += len(tr.Content)
	}
	return int(math.Ceil(float64(chars)/charsPerToken)) + messageOverheadTokens
}

// EstimateTotalTokens sums EstimateMessageTokens across messages.
func EstimateTotalTokens(messages []*models.Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// Budget is the token envelope for one (provider, model) pair.
type Budget struct {
	TargetTokens int
	MaxTokens    int
}

// DefaultBudget is used for any model not matched by the budget table.
var DefaultBudget = Budget{TargetTokens: 88000, MaxTokens: 100000}

// budgetEntry pairs a case-insensitive model substring pattern with a budget.
type budgetEntry struct {
	providerID string
	pattern    string
	budget     Budget
}

// budgetTable is the provider/model → budget mapping. Patterns are matched
// as case-insensitive substrings of the model ID; the first match wins.
var budgetTable = []budgetEntry{
	{"anthropic", "claude-3-5", Budget{170000, 200000}},
	{"anthropic", "claude-3-opus", Budget{170000, 200000}},
	{"anthropic", "claude", Budget{150000, 180000}},
	{"openai", "gpt-4o", Budget{110000, 128000}},
	{"openai", "gpt-4-turbo", Budget{110000, 128000}},
	{"openai", "gpt-4", Budget{6500, 8192}},
	{"openai", "gpt-3.5", Budget{13000, 16385}},
	{"local", "", Budget{28000, 32000}},
}

// BudgetFor returns a fresh Budget value for the given provider/model pair.
// A new struct is always returned so callers can never observe or mutate
// shared state through it.
func BudgetFor(providerID, model string) Budget {
	lowerModel := strings.ToLower(model)
	lowerProvider := strings.ToLower(providerID)
	for _, e := range budgetTable {
		if e.providerID != "" && e.providerID != lowerProvider {
			continue
		}
		if e.pattern == "" || strings.Contains(lowerModel, e.pattern) {
			return e.budget
		}
	}
	return DefaultBudget
}

// protectedTail is the number of most-recent messages that Phase 1 never
// touches, in addition to the system prompt and first user message.
const protectedTail = 14

// minMessagesAfterHardSplice is the floor Phase 3 preserves: system prompt
// + first user message + enough tail to total at least this many messages.
const minMessagesAfterHardSplice = 16

// TrimResult is the outcome of Trim.
type TrimResult struct {
	Messages []*models.Message
	Trimmed  bool
}

// Trim fits messages inside the budget for (providerID, model), applying
// graceful digesting when needed. It never mutates the input slice or any
// message within it; every returned message is either the original pointer
// (when untouched) or a freshly allocated copy.
func Trim(messages []*models.Message, providerID, model string, mode ContextMode) (*TrimResult, error) {
	budget := BudgetFor(providerID, model)

	total := EstimateTotalTokens(messages)
	if total <= budget.TargetTokens {
		out := make([]*models.Message, len(messages))
		copy(out, messages)
		return &TrimResult{Messages: out, Trimmed: false}, nil
	}

	if mode == ModeNone {
		return nil, fmt.Errorf("budget exceeded: %d tokens > target %d", total, budget.TargetTokens)
	}

	working := make([]*models.Message, len(messages))
	copy(working, messages)

	protected := protectedIndices(working)

	// Phase 1: summarize unprotected tool_result / verbose assistant messages.
	for i, m := range working {
		if protected[i] {
			continue
		}
		if !isSummarizable(m) {
			continue
		}
		working[i] = summarizeMessage(m)
	}

	if EstimateTotalTokens(working) <= budget.TargetTokens {
		return &TrimResult{Messages: working, Trimmed: true}, nil
	}

	// Phase 2: remove consecutive (assistant, tool_result) pairs from oldest
	// to newest, accumulating a single digest message at the position of
	// the first removed pair.
	working = phase2PairRemoval(working, protected, budget.TargetTokens)
	if EstimateTotalTokens(working) <= budget.TargetTokens {
		return &TrimResult{Messages: working, Trimmed: true}, nil
	}

	// Phase 3: hard splice fallback.
	if EstimateTotalTokens(working) > budget.MaxTokens {
		working = phase3HardSplice(working, budget.MaxTokens)
	}

	return &TrimResult{Messages: working, Trimmed: true}, nil
}

// protectedIndices marks index 0 (system prompt), the first user message,
// and the last protectedTail messages as never touched by Phase 1/2.
func protectedIndices(messages []*models.Message) map[int]bool {
	protected := map[int]bool{}
	if len(messages) == 0 {
		return protected
	}
	protected[0] = true

	for i, m := range messages {
		if m != nil && m.Role == models.RoleUser {
			protected[i] = true
			break
		}
	}

	start := len(messages) - protectedTail
	if start < 0 {
		start = 0
	}
	for i := start; i < len(messages); i++ {
		protected[i] = true
	}
	return protected
}

func isSummarizable(m *models.Message) bool {
	if m == nil {
		return false
	}
	if len(m.ToolResults) > 0 {
		return true
	}
	return m.Role == models.RoleAssistant && len(m.Content) > 2000
}

// summarizeMessage returns a new message whose content is replaced by a
// head/tail-preserving summary. The original message and its content
// string are never mutated.
func summarizeMessage(m *models.Message) *models.Message {
	out := *m
	if len(m.ToolResults) > 0 {
		out.ToolResults = make([]models.ToolResult, len(m.ToolResults))
		for i, tr := range m.ToolResults {
			out.ToolResults[i] = summarizeToolResult(tr)
		}
	}
	if m.Role == models.RoleAssistant {
		out.Content = summarizeText(m.Content)
	}
	return &out
}

func summarizeToolResult(tr models.ToolResult) models.ToolResult {
	tr.Content = summarizeText(tr.Content)
	return tr
}

func summarizeText(content string) string {
	const headLen, tailLen = 200, 200
	n := len(content)
	if n <= headLen+tailLen {
		return content
	}
	head := content[:headLen]
	tail := content[n-tailLen:]
	summarizedChars := n - headLen - tailLen
	return fmt.Sprintf("%s\n[...summarized %d chars]\n%s", head, summarizedChars, tail)
}

// phase2PairRemoval walks unprotected messages oldest-to-newest, removing
// consecutive (assistant, tool_result) pairs and folding their summaries
// into one digest message inserted at the position of the first pair
// removed. It stops as soon as the running total is within target.
func phase2PairRemoval(messages []*models.Message, protected map[int]bool, target int) []*models.Message {
	var digestParts []string
	digestInserted := false
	out := make([]*models.Message, 0, len(messages))

	i := 0
	for i < len(messages) {
		if protected[i] {
			out = append(out, messages[i])
			i++
			continue
		}

		if EstimateTotalTokens(append(append([]*models.Message{}, out...), messages[i:]...)) <= target {
			out = append(out, messages[i:]...)
			break
		}

		m := messages[i]
		isAssistant := m != nil && m.Role == models.RoleAssistant
		hasNextToolResult := i+1 < len(messages) && !protected[i+1] && messages[i+1] != nil && len(messages[i+1].ToolResults) > 0

		if isAssistant && hasNextToolResult {
			digestParts = append(digestParts, pairSummary(m, messages[i+1]))
			if !digestInserted {
				out = append(out, nil) // placeholder, filled below
				digestInserted = true
			}
			i += 2
			continue
		}

		// Not a removable pair (e.g. a standalone summarized message from
		// Phase 1); keep it.
		out = append(out, m)
		i++
	}

	if !digestInserted {
		return out
	}

	digest := &models.Message{
		Role:    models.RoleUser,
		Content: "[CONTEXT DIGEST]\n" + strings.Join(digestParts, "\n---\n") + "\n[/CONTEXT DIGEST]",
	}

	final := make([]*models.Message, 0, len(out))
	placed := false
	for _, m := range out {
		if m == nil {
			if !placed {
				final = append(final, digest)
				placed = true
			}
			continue
		}
		final = append(final, m)
	}
	return final
}

func pairSummary(assistant, toolResult *models.Message) string {
	assistantSnippet := assistant.Content
	if len(assistantSnippet) > 120 {
		assistantSnippet = assistantSnippet[:120] + "..."
	}
	toolText := ""
	if len(toolResult.ToolResults) > 0 {
		toolText = toolResult.ToolResults[0].Content
	}
	if len(toolText) > 200 {
		toolText = toolText[:200] + "..."
	}
	return fmt.Sprintf("assistant: %s\ntool_result: %s", assistantSnippet, toolText)
}

// phase3HardSplice splices messages from position 1 onward until the
// total is within maxTokens, preserving the system prompt, first user
// message, and at least minMessagesAfterHardSplice messages overall.
func phase3HardSplice(messages []*models.Message, maxTokens int) []*models.Message {
	if len(messages) <= minMessagesAfterHardSplice {
		return messages
	}

	working := make([]*models.Message, len(messages))
	copy(working, messages)

	// Keep index 0 (system) and index 1 (first user message) fixed;
	// remove from index 2 onward, oldest first, until under budget or the
	// floor is hit.
	for EstimateTotalTokens(working) > maxTokens && len(working) > minMessagesAfterHardSplice {
		working = append(working[:2], working[3:]...)
	}
	return working
}
