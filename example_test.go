package concierge_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/pkg/catalog"
)

// ExampleNew shows the engine serving the builtin forms.
func ExampleNew() {
	eng, err := concierge.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	reply, err := eng.Process(ctx, "demo", "quero pedir abono de família")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text)

	reply, err = eng.Process(ctx, "demo", "Ricardo Gomes")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text)
	fmt.Printf("%d/%d\n", reply.Progress.FilledCount, reply.Progress.TotalRequired)

	// Output:
	// Entendido! Vamos iniciar o preenchimento do formulário de "Pedido de Abono de Família". Qual é o teu nome completo do requerente?
	// Entendido! Qual é o teu nif do requerente?
	// 1/8
}

// ExampleWithCatalog builds a small catalog in code.
func ExampleWithCatalog() {
	c, err := catalog.NewBuilder().
		Form("contacto", "Pedido de Contacto").
		Triggers("falar com alguém").
		Text("nome", "Nome").
		Select("canal", "Canal", "telefone", "email").
		Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := concierge.New(concierge.WithCatalog(c), concierge.WithLocale("en"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, utterance := range []string{"quero falar com alguém", "Rita", "prefiro email"} {
		reply, err := eng.Process(ctx, "demo", utterance)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply.Text)
	}

	docs, _ := eng.Documents(ctx, "demo")
	fmt.Println(docs[0].Name, docs[0].Data["canal"])

	// Output:
	// Got it! Let's fill in the "Pedido de Contacto" form. What is your nome?
	// Got it! What is your canal?
	// Great! I have everything for the "Pedido de Contacto" form. The document was generated and added to your library. ✅
	// Pedido de Contacto - Completed email
}
