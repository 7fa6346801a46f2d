// Package responder implements ports.Responder on top of chat completion
// models.
package responder

import (
	"strings"

	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature float32 = 0.7

// SystemInstruction is the default assistant persona.
const SystemInstruction = `És o assistente virtual de um balcão de serviços públicos em Portugal.

PERSONALIDADE:
- Trata o utilizador por "tu". Ex: "Diz-me", "Podes enviar", "Vi que pediste".
- Respostas curtas e diretas, no máximo 2 a 3 frases, exceto quando listas documentos.
- Sê proativo: diz logo o que falta para os serviços pendentes.

CONTEXTO:
- Recebes a lista de serviços pendentes e de documentos que o utilizador já tem.
- Os formulários são preenchidos pelo sistema, um campo de cada vez. Se houver um formulário ativo, ajuda o utilizador a responder ao campo indicado e não peças outros campos.

ESCALAÇÃO:
- Se a questão exigir análise jurídica ou fiscal aprofundada, diz que o processo vai ser encaminhado para um especialista que entrará em contacto.

Escreve sempre em português de Portugal.
`

// BuildPrompt appends the conversation context blocks to the utterance.
// Missing lists are rendered with the placeholder of p.
func BuildPrompt(req ports.ResponderRequest, p *prompts.Set) string {
	var b strings.Builder
	b.WriteString(req.Utterance)

	if a := req.Active; a != nil {
		b.WriteString("\n\nCONTEXTO DE FORMULÁRIO ATIVO:\nFormulário: ")
		b.WriteString(a.Form.Name)
		var filled []string
		for _, f := range a.Form.Fields {
			if _, ok := a.Collected[f.ID]; ok {
				filled = append(filled, f.ID)
			}
		}
		if len(filled) > 0 {
			b.WriteString("\nCampos preenchidos: ")
			b.WriteString(strings.Join(filled, ", "))
		}
		if a.Field.ID != "" {
			b.WriteString("\nPróximo campo a pedir: \"")
			b.WriteString(a.Field.Label)
			b.WriteString("\" (ID: ")
			b.WriteString(a.Field.ID)
			b.WriteString(")")
		} else {
			b.WriteString("\nTodos os campos obrigatórios preenchidos.")
		}
	}

	writeList(&b, "DOCUMENTOS QUE JÁ TENHO", req.Ambient.Documents, p)
	writeList(&b, "SERVIÇOS QUE O CLIENTE QUER (PENDENTES)", req.Ambient.PendingItems, p)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string, p *prompts.Set) {
	b.WriteString("\n\n")
	b.WriteString(title)
	b.WriteString(":\n")
	if len(items) == 0 {
		b.WriteString(p.None())
		return
	}
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
}

type config struct {
	system      string
	temperature float32
	prompts     *prompts.Set
}

// Option configures a responder.
type Option func(*config)

// WithSystemInstruction replaces the default persona.
func WithSystemInstruction(s string) Option {
	return func(c *config) {
		c.system = s
	}
}

func WithTemperature(t float32) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithPrompts sets the language of list placeholders.
func WithPrompts(p *prompts.Set) Option {
	return func(c *config) {
		c.prompts = p
	}
}

func newConfig(opts []Option) config {
	c := config{system: SystemInstruction, temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&c)
	}
	if c.prompts == nil {
		c.prompts = prompts.New("")
	}
	return c
}
