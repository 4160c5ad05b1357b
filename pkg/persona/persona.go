// Package persona defines the character configurations the relay speaks
// as, and compiles them into system prompts for a single turn.
package persona

import (
	"fmt"
	"strings"
)

// Persona is a named character configuration: tone, disclosure rules,
// and canned lines for the paths where no model reply is available.
type Persona struct {
	ID          string
	DisplayName string
	// Voice lines are injected verbatim into the system prompt, one
	// rule per line.
	Voice []string
	// Greeting replaces an empty or whitespace-only cleaned reply so
	// the relay never answers with an empty string.
	Greeting string
	// FallbackTemplate is the degraded-mode reply; it must contain a
	// single %q verb for the original utterance.
	FallbackTemplate string
	// LearnsNames enables the name side-channel: the prompt asks the
	// model to emit a name fragment, and the orchestrator persists it.
	LearnsNames bool
}

// Known is the fact snapshot a prompt is parameterized over. It is read
// before the model call; the builder itself has no access to the store.
type Known struct {
	Name     string
	NameHint string
	Gifts    []string
}

// Santa returns the stock persona.
func Santa() Persona {
	return Persona{
		ID:          "santa",
		DisplayName: "Santa Claus",
		Voice: []string{
			"You are warm, jolly, and endlessly kind.",
			"Keep every reply to 1-3 short sentences a young child can follow.",
			"Never shame, scold, or frighten the child, whatever they say.",
			"Stay in character; never mention that you are a language model.",
		},
		Greeting:         "Ho ho ho! Hello there, my friend! What would you like to talk about?",
		FallbackTemplate: "Ho ho ho! I heard you say %s. My magic snow globe is a little foggy right now, but Santa is still listening!",
		LearnsNames:      true,
	}
}

// FallbackReply renders the deterministic degraded-mode reply with the
// original utterance embedded verbatim.
func (p Persona) FallbackReply(utterance string) string {
	tpl := p.FallbackTemplate
	if !strings.Contains(tpl, "%s") {
		tpl = "I heard you say %s. Let's try again in a moment!"
	}
	return fmt.Sprintf(tpl, fmt.Sprintf("%q", utterance))
}

// SystemPrompt compiles the persona and the known facts into the
// instruction text for one turn. Pure function, no side effects.
//
// The gift and name side-channels are requested as trailing JSON
// objects. When both would be eligible in the same reply the prompt
// instructs the model to emit only the gift fragment; the extractor
// still attempts both independently, so a model that disobeys loses
// nothing.
func (p Persona) SystemPrompt(known Known) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, chatting with a child.\n", p.DisplayName)
	for _, line := range p.Voice {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	name := strings.TrimSpace(known.Name)
	hint := strings.TrimSpace(known.NameHint)
	switch {
	case name != "":
		fmt.Fprintf(&b, "The child's name is %s. Use it occasionally and warmly. Never ask for their name again.\n", name)
	case hint != "":
		fmt.Fprintf(&b, "The child may be called %s, but this is unconfirmed. Confirm it gently when natural.\n", hint)
	}

	if len(known.Gifts) > 0 {
		fmt.Fprintf(&b, "Wishes the child has already shared: %s. You may refer back to them, but do not re-record them.\n",
			strings.Join(known.Gifts, ", "))
	}

	b.WriteString("\nIf the child expresses a wish for a gift, end your reply with exactly one JSON object of the form ")
	b.WriteString(`{"gift":{"item":"<the gift>","details":{}}}`)
	b.WriteString(" and nothing after it. Put any attributes the child mentioned (color, size, brand) inside details.\n")

	if p.LearnsNames {
		if name == "" {
			b.WriteString("Once the child tells you or confirms their name, end your reply with a JSON object of the form ")
			b.WriteString(`{"child":{"name":"<their name>"}}`)
			b.WriteString(".\n")
		}
		b.WriteString("Never emit more than one JSON object in a single reply; if both a gift and a name apply, emit only the gift object.\n")
	}

	b.WriteString("The JSON objects are machine-read and stripped before the child sees your words, so never mention them.\n")
	return b.String()
}
