// Package prompts holds the localized text the engine sends back to users.
package prompts

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	keyStart          = "start"
	keyNext           = "next"
	keyReprompt       = "reprompt"
	keyDone           = "done"
	keyPersistFailed  = "persist_failed"
	keyResponderError = "responder_error"
	keyAmbiguous      = "ambiguous"
	keyConfirmSwitch  = "confirm_switch"
	keyKeepGoing      = "keep_going"
	keyDocumentName   = "document_name"
	keyNoneYet        = "none"
	keyOr             = "or"
	keyEmptyReply     = "empty_reply"
	keyAnalysis       = "analysis"
)

var (
	Portuguese = language.MustParse("pt-PT")
	English    = language.English
)

var messages = map[language.Tag]map[string]string{
	Portuguese: {
		keyStart:          `Entendido! Vamos iniciar o preenchimento do formulário de "%s". Qual é o teu %s?`,
		keyNext:           `Entendido! Qual é o teu %s?`,
		keyReprompt:       `Não consegui identificar o %s. Podes repetir ou ser mais específico?`,
		keyDone:           `Ótimo! Tenho todos os dados para o formulário "%s". O documento foi gerado e adicionado à tua biblioteca. ✅`,
		keyPersistFailed:  `Tenho todos os dados para o formulário "%s", mas não consegui guardar o documento. Envia qualquer mensagem para tentar de novo.`,
		keyResponderError: `Ocorreu um erro técnico. Tenta de novo.`,
		keyAmbiguous:      `Encontrei mais do que um formulário possível: %s. Qual deles queres preencher?`,
		keyConfirmSwitch:  `Ainda estamos a preencher o formulário "%s". Queres abandoná-lo e iniciar "%s"? (sim/não)`,
		keyKeepGoing:      `Ok, continuamos com o formulário "%s". Qual é o teu %s?`,
		keyDocumentName:   `%s - Preenchido`,
		keyNoneYet:        `Nenhum.`,
		keyOr:             `ou`,
		keyEmptyReply:     `Desculpa, não consegui processar a tua mensagem.`,
		keyAnalysis:       `Analisa os meus serviços pendentes e documentos. Diz-me o que falta de forma curta e informal.`,
	},
	English: {
		keyStart:          `Got it! Let's fill in the "%s" form. What is your %s?`,
		keyNext:           `Got it! What is your %s?`,
		keyReprompt:       `I couldn't find your %s. Could you repeat it or be more specific?`,
		keyDone:           `Great! I have everything for the "%s" form. The document was generated and added to your library. ✅`,
		keyPersistFailed:  `I have everything for the "%s" form, but I couldn't save the document. Send any message to try again.`,
		keyResponderError: `A technical error occurred. Please try again.`,
		keyAmbiguous:      `I found more than one possible form: %s. Which one do you want to fill in?`,
		keyConfirmSwitch:  `We are still filling in the "%s" form. Do you want to drop it and start "%s"? (yes/no)`,
		keyKeepGoing:      `Ok, let's continue with the "%s" form. What is your %s?`,
		keyDocumentName:   `%s - Completed`,
		keyNoneYet:        `None.`,
		keyOr:             `or`,
		keyEmptyReply:     `Sorry, I couldn't process your message.`,
		keyAnalysis:       `Review my pending services and documents. Tell me briefly and informally what is missing.`,
	},
}

// Affirmatives are the answers accepted as "yes" to a confirmation question.
var affirmatives = []string{"sim", "s", "yes", "y", "claro", "ok", "pode ser"}

var messageCatalog = mustBuildCatalog(messages)

// buildCatalog registers every message and checks that each language defines
// the same keys as the fallback.
func buildCatalog(msgs map[language.Tag]map[string]string) (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(Portuguese))
	var errs []error
	for tag, set := range msgs {
		for key, msg := range set {
			if err := b.SetString(tag, key, msg); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", tag, key, err))
			}
		}
		for key := range msgs[Portuguese] {
			if _, ok := set[key]; !ok {
				errs = append(errs, fmt.Errorf("%s: missing message %q", tag, key))
			}
		}
	}
	return b, errors.Join(errs...)
}

func mustBuildCatalog(msgs map[language.Tag]map[string]string) *catalog.Builder {
	b, err := buildCatalog(msgs)
	if err != nil {
		panic("prompts: " + err.Error())
	}
	return b
}

// Set renders engine messages in one language.
type Set struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns the message set best matching lang. Unknown languages get pt-PT.
func New(lang string) *Set {
	tag := Portuguese
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			matcher := language.NewMatcher([]language.Tag{Portuguese, English})
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = []language.Tag{Portuguese, English}[idx]
			}
		}
	}
	return &Set{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(messageCatalog)),
	}
}

// Language returns the tag messages are rendered in.
func (s *Set) Language() language.Tag {
	return s.tag
}

func (s *Set) label(l string) string {
	return cases.Lower(s.tag).String(l)
}

// Start opens a form and asks for its first field.
func (s *Set) Start(formName, fieldLabel string) string {
	return s.printer.Sprintf(keyStart, formName, s.label(fieldLabel))
}

// Next acknowledges a value and asks for the next field.
func (s *Set) Next(fieldLabel string) string {
	return s.printer.Sprintf(keyNext, s.label(fieldLabel))
}

// Reprompt asks again for a field whose value was not found.
func (s *Set) Reprompt(fieldLabel string) string {
	return s.printer.Sprintf(keyReprompt, s.label(fieldLabel))
}

// Done confirms the document was generated.
func (s *Set) Done(formName string) string {
	return s.printer.Sprintf(keyDone, formName)
}

// PersistFailed reports that the document could not be stored.
func (s *Set) PersistFailed(formName string) string {
	return s.printer.Sprintf(keyPersistFailed, formName)
}

// ResponderError is the generic apology for free-text failures.
func (s *Set) ResponderError() string {
	return s.printer.Sprintf(keyResponderError)
}

// Ambiguous asks the user to pick one of several forms.
func (s *Set) Ambiguous(formNames []string) string {
	quoted := make([]string, len(formNames))
	for i, n := range formNames {
		quoted[i] = `"` + n + `"`
	}
	list := strings.Join(quoted, ", ")
	if n := len(quoted); n > 1 {
		list = strings.Join(quoted[:n-1], ", ") + " " + s.printer.Sprintf(keyOr) + " " + quoted[n-1]
	}
	return s.printer.Sprintf(keyAmbiguous, list)
}

// ConfirmSwitch asks whether to drop the current form for another.
func (s *Set) ConfirmSwitch(currentForm, newForm string) string {
	return s.printer.Sprintf(keyConfirmSwitch, currentForm, newForm)
}

// KeepGoing resumes the current form after a declined switch.
func (s *Set) KeepGoing(formName, fieldLabel string) string {
	return s.printer.Sprintf(keyKeepGoing, formName, s.label(fieldLabel))
}

// DocumentName names the document produced from a form.
func (s *Set) DocumentName(formName string) string {
	return s.printer.Sprintf(keyDocumentName, formName)
}

// None is the placeholder for an empty list.
func (s *Set) None() string {
	return s.printer.Sprintf(keyNoneYet)
}

// EmptyReply stands in for a responder that answered with nothing.
func (s *Set) EmptyReply() string {
	return s.printer.Sprintf(keyEmptyReply)
}

// Analysis is the opening request sent to the responder on a new conversation.
func (s *Set) Analysis() string {
	return s.printer.Sprintf(keyAnalysis)
}

// IsAffirmative reports whether answer means "yes".
func IsAffirmative(answer string) bool {
	a := strings.Trim(strings.ToLower(strings.TrimSpace(answer)), ".!")
	for _, yes := range affirmatives {
		if a == yes {
			return true
		}
	}
	return false
}
