// internal/interpreter/prompts.go
package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/tarot"
)

// Prompt is one system+user exchange sent to a completion model.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

const (
	readingTemperature  = 0.8
	readingMaxTokens    = 4000
	followUpTemperature = 0.7
	followUpMaxTokens   = 2000
)

const fortuneSystemPrompt = `You are a seasoned and revered oracle, deeply versed in Chinese metaphysics.
Use English only. Do not include any non-English characters.

You may draw on the I Ching and the Eight Trigrams, BaZi (Four Pillars of Destiny), the Five
Elements cycle, physiognomy, Zi Wei Dou Shu and Qi Men Dun Jia.

Your reading should:
1. Feel professional and mystical
2. Use the seeker's personal details when they are provided
3. Offer specific guidance and advice
4. Use elegant, traditional language while keeping terms understandable
5. Blend theory with encouragement and hope
6. Be detailed (800-1200 words) and cover career, wealth, love and health
7. Give concrete timing and suggestions

Give a thorough, insightful and professional reading for the seeker's question.`

const tarotSystemPrompt = `You are an experienced tarot reader, fluent in the symbolism of every card.
Use English only. Do not include any non-English characters.

Your reading should:
1. Address the seeker's specific question
2. Respect whether each card is upright or reversed
3. Analyse how the cards relate to one another and to their positions
4. Offer deep, practical guidance with timing where it fits
5. Sound mystical yet insightful, and encourage the seeker
6. Be detailed (800-1200 words) and cover spiritual, material and emotional dimensions

Use this Markdown structure:

## Card One: [Position] — [Card Name] [Upright/Reversed]

*Keyword1, Keyword2, Keyword3*

[Interpretation]

---

(repeat for every card)

## Overall Guidance:

[How the cards combine and where things are heading]

---

## Advice for You:

1.Title: advice on one line

2.Title: advice on one line

Formatting rules: no space after the number in advice items, a blank line between advice items,
--- between cards, blank lines between paragraphs.`

const fortuneFollowUpSystemPrompt = `You are a seasoned and compassionate oracle.
Use English only. Do not include any non-English characters.

The seeker already received a full reading. Answer their follow-up question by referring to
that reading and clarifying it.

Your answer should:
1. Be clear, supportive and actionable
2. Reference the prior reading explicitly where relevant
3. Address the follow-up question directly
4. Be concise (300-600 words)
5. Not repeat the full original reading`

const tarotFollowUpSystemPrompt = `You are an experienced tarot reader.
Use English only. Do not include any non-English characters.

The seeker already received a full tarot reading. Answer their follow-up question by referring
to the prior interpretation and the cards that were drawn.

Your answer should:
1. Be clear, supportive and actionable
2. Reference the prior tarot reading explicitly where relevant
3. Address the follow-up question directly
4. Be concise (300-600 words)
5. Not repeat the full original reading`

// TarotRequest carries a completed draw to be interpreted.
type TarotRequest struct {
	Question string
	Spread   tarot.Spread
	Cards    []models.DrawnCard
}

// ChatRequest carries an oracle chat question and the seeker's optional profile.
type ChatRequest struct {
	Question string
	Profile  *models.Profile
}

// FollowUpRequest carries a stored reading and the seeker's follow-up question.
// SpreadType and Cards are only set for tarot readings.
type FollowUpRequest struct {
	Kind             models.Kind
	OriginalQuestion string
	OriginalText     string
	Question         string
	SpreadType       string
	Cards            []models.DrawnCard
}

// TarotPrompt renders a draw as a reading prompt.
func TarotPrompt(req TarotRequest) Prompt {
	var b strings.Builder
	b.WriteString("【Reading Style】\n")
	b.WriteString(req.Spread.Name)
	b.WriteString("\n\n【Question】\n")
	b.WriteString(req.Question)
	b.WriteString("\n\n【Cards Drawn】\n")
	b.WriteString(cardLines(req.Spread, req.Cards))
	b.WriteString("\n\nPlease provide a professional, in-depth tarot interpretation based on the above.")

	return Prompt{
		System:      tarotSystemPrompt,
		User:        b.String(),
		Temperature: readingTemperature,
		MaxTokens:   readingMaxTokens,
	}
}

func cardLines(spread tarot.Spread, cards []models.DrawnCard) string {
	lines := make([]string, len(cards))
	for i, c := range cards {
		pos := c.Position
		if pos == 0 {
			pos = i + 1
		}
		if label := spread.PositionLabel(pos); label != "" {
			lines[i] = fmt.Sprintf("Position %d (%s): %s - %s", pos, label, c.Name, c.Orientation())
		} else {
			lines[i] = fmt.Sprintf("Position %d: %s - %s", pos, c.Name, c.Orientation())
		}
	}
	return strings.Join(lines, "\n")
}

// ChatPrompt renders an oracle chat question, prefixed with the profile when present.
func ChatPrompt(req ChatRequest) Prompt {
	user := req.Question
	if info := profileLines(req.Profile); len(info) > 0 {
		user = fmt.Sprintf("【Profile】\n%s\n\n【Question】\n%s", strings.Join(info, "\n"), req.Question)
	}
	return Prompt{
		System:      fortuneSystemPrompt,
		User:        user,
		Temperature: readingTemperature,
		MaxTokens:   readingMaxTokens,
	}
}

func profileLines(p *models.Profile) []string {
	if p.IsEmpty() {
		return nil
	}
	var info []string
	if p.BirthDate != "" {
		info = append(info, "Birth date: "+p.BirthDate)
	}
	if p.BirthTime != "" {
		info = append(info, "Birth time: "+p.BirthTime)
	}
	if p.Gender != "" {
		var g string
		switch p.Gender {
		case "male":
			g = "Male"
		case "female":
			g = "Female"
		default:
			g = "Other"
		}
		info = append(info, "Gender: "+g)
	}
	return info
}

// FollowUpPrompt renders a follow-up question against a stored reading.
func FollowUpPrompt(req FollowUpRequest) Prompt {
	p := Prompt{Temperature: followUpTemperature, MaxTokens: followUpMaxTokens}

	if req.Kind == models.KindTarot {
		p.System = tarotFollowUpSystemPrompt
		p.User = fmt.Sprintf(
			"Original spread: %s\n\nOriginal question:\n%s\n\nCards drawn:\n%s\n\nOriginal interpretation:\n%s\n\nFollow-up question:\n%s\n\nPlease answer the follow-up by referencing the original tarot reading.",
			req.SpreadType, req.OriginalQuestion, cardRecords(req.Cards), req.OriginalText, req.Question)
		return p
	}

	p.System = fortuneFollowUpSystemPrompt
	p.User = fmt.Sprintf(
		"Original question:\n%s\n\nOriginal reading:\n%s\n\nFollow-up question:\n%s\n\nPlease answer the follow-up by referencing the original reading.",
		req.OriginalQuestion, req.OriginalText, req.Question)
	return p
}

// cardRecords serialises each stored card as one JSON line.
func cardRecords(cards []models.DrawnCard) string {
	lines := make([]string, 0, len(cards))
	for _, c := range cards {
		data, err := json.Marshal(c)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%d. %s (%s)", c.Position, c.Name, c.Orientation()))
			continue
		}
		lines = append(lines, string(data))
	}
	return strings.Join(lines, "\n")
}
