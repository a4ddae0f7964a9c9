package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/showroom/internal/app"
	"github.com/spherical-ai/spherical/libs/showroom/internal/chat"
)

// newChatCmd creates the chat subcommand.
func newChatCmd() *cobra.Command {
	var customer chat.Customer

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the customer chat through the CRM API",
		Long: `Chat opens a customer session against the configured CRM API, the same
way the storefront widget does, and streams the assistant replies.

Commands inside the chat:
  /operatore   hand the conversation to a human operator
  /esci        close the chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.NewCRMClient(cfg, logger)
			if err != nil {
				return err
			}
			in := bufio.NewScanner(os.Stdin)
			return runChat(cmd.Context(), chat.NewSession(client, app.SessionConfig(cfg), logger), in, customer)
		},
	}

	cmd.Flags().StringVar(&customer.FirstName, "first-name", "", "customer first name")
	cmd.Flags().StringVar(&customer.LastName, "last-name", "", "customer last name")
	cmd.Flags().StringVar(&customer.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&customer.Phone, "phone", "", "customer phone")
	return cmd
}

func runChat(ctx context.Context, session *chat.Session, in *bufio.Scanner, customer chat.Customer) error {
	session.Open()
	defer session.Close()

	ui.Section("Registrazione")
	customer.FirstName = ask(in, "Nome", customer.FirstName)
	customer.LastName = ask(in, "Cognome", customer.LastName)
	customer.Email = ask(in, "Email", customer.Email)
	customer.Phone = ask(in, "Telefono", customer.Phone)
	if _, err := chat.ValidateCustomer(customer); err != nil {
		return err
	}

	views, cancel := session.Subscribe()
	defer cancel()
	tr := newTranscript(ui)
	go tr.follow(views)

	sp := ui.Spinner("Connessione in corso...")
	sp.Start()
	err := session.Register(ctx, customer)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	ui.Section("Chat")

	for {
		tr.waitIdle()
		if session.State() == chat.StateClosed {
			return nil
		}
		fmt.Fprint(ui.out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())

		switch text {
		case "":
			continue
		case "/esci", "/quit":
			ui.Info("Chat chiusa")
			return nil
		case "/operatore", "/operator":
			if err := session.RequestOperator(ctx); err != nil {
				ui.Error("Richiesta operatore non riuscita: %v", err)
				continue
			}
			tr.waitClosed(cfg.Chat.OperatorCloseDelay + time.Second)
			ui.Info("Chat chiusa")
			return nil
		}

		tr.expectReply()
		sp := ui.Spinner("L'assistente sta scrivendo...")
		sp.Start()
		tr.onFirstChunk(sp.Stop)
		err := session.SendMessage(ctx, text)
		sp.Stop()
		if err != nil {
			ui.Error("%v", err)
			tr.markIdle()
		}
	}
}

func ask(in *bufio.Scanner, label, current string) string {
	if current != "" {
		return current
	}
	fmt.Fprintf(ui.out, "%s: ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// transcript prints session views incrementally. Messages typed by the
// customer are not echoed; a streaming reply is printed as it grows.
type transcript struct {
	ui      *UI
	out     io.Writer
	printed map[string]bool

	streamID string
	streamed string

	idle    chan struct{}
	closed  chan struct{}
	isDone  bool
	chunkCb chan func()
}

func newTranscript(u *UI) *transcript {
	return &transcript{
		ui:      u,
		out:     u.out,
		printed: map[string]bool{},
		idle:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
		chunkCb: make(chan func(), 1),
	}
}

func (t *transcript) follow(views <-chan chat.View) {
	for v := range views {
		t.render(v)
	}
}

// expectReply makes waitIdle block until the next reply settles.
func (t *transcript) expectReply() {
	select {
	case <-t.idle:
	default:
	}
	select {
	case <-t.chunkCb:
	default:
	}
}

// onFirstChunk registers f to run once the reply starts printing.
func (t *transcript) onFirstChunk(f func()) {
	select {
	case t.chunkCb <- f:
	default:
	}
}

func (t *transcript) waitIdle() {
	select {
	case <-t.idle:
	case <-t.closed:
	}
}

func (t *transcript) waitClosed(timeout time.Duration) {
	select {
	case <-t.closed:
	case <-time.After(timeout):
	}
}

func (t *transcript) render(v chat.View) {
	for _, m := range v.Messages {
		if t.printed[m.ID] {
			continue
		}
		if m.Role == chat.RoleCustomer {
			t.printed[m.ID] = true
			continue
		}

		if m.Streaming {
			if m.ID != t.streamID {
				t.startReply()
				t.streamID, t.streamed = m.ID, ""
				t.ui.colored(color.FgGreen, color.Bold).Fprint(t.out, speakerName(m.Role)+": ")
			}
			if len(m.Content) > len(t.streamed) {
				fmt.Fprint(t.out, m.Content[len(t.streamed):])
				t.streamed = m.Content
			}
			continue
		}

		t.printed[m.ID] = true
		if t.streamID != "" {
			finished := m.Role == chat.RoleAI && m.Content == t.streamed
			fmt.Fprintln(t.out)
			t.streamID, t.streamed = "", ""
			if finished {
				continue
			}
		}
		t.startReply()
		t.ui.Speaker(speakerName(m.Role), speakerColor(m.Role), m.Content)
	}

	if v.State == chat.StateClosed {
		if !t.isDone {
			t.isDone = true
			close(t.closed)
		}
		return
	}
	if !v.Loading && v.SessionID != "" {
		t.markIdle()
	}
}

func (t *transcript) markIdle() {
	select {
	case t.idle <- struct{}{}:
	default:
	}
}

func (t *transcript) startReply() {
	select {
	case f := <-t.chunkCb:
		f()
	default:
	}
}

func speakerName(r chat.Role) string {
	switch r {
	case chat.RoleOperator:
		return "Operatore"
	case chat.RoleCustomer:
		return "Tu"
	default:
		return "Assistente"
	}
}

func speakerColor(r chat.Role) color.Attribute {
	switch r {
	case chat.RoleOperator:
		return color.FgBlue
	case chat.RoleCustomer:
		return color.FgWhite
	default:
		return color.FgGreen
	}
}
