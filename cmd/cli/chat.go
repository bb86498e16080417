package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soaringjerry/Solace/internal/chat"
	"github.com/soaringjerry/Solace/internal/client"
	"github.com/soaringjerry/Solace/internal/markup"
)

const chatHelp = `/new         start a new conversation
/sessions    list conversations
/open N      switch to conversation N
/delete N    delete conversation N
/quit        leave`

func (a *app) confirmDelete(s client.Session) bool {
	title := s.Title
	if title == "" {
		title = s.SessionID
	}
	line, err := a.prompt(fmt.Sprintf("Delete %q and all its messages? [y/N]: ", title))
	if err != nil {
		return false
	}
	line = strings.ToLower(line)
	return line == "y" || line == "yes"
}

func (a *app) chat(ctx context.Context, html bool) error {
	ctl := chat.NewController(a.api, chat.WithConfirm(a.confirmDelete))
	if err := ctl.LoadSessions(ctx); err != nil {
		a.showError(ctl)
	}
	fmt.Fprintln(a.out, titleStyle.Render("Solace chat"))
	fmt.Fprintln(a.out, faintStyle.Render("Type a message, or /help for commands."))
	if ctl.ActiveID() != "" {
		a.printTranscript(ctl, html)
	}

	for {
		line, err := a.prompt("\n" + youStyle.Render("You:") + " ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := a.chatCommand(ctx, ctl, line, html)
			if err != nil || quit {
				return err
			}
			continue
		}
		if err := ctl.Send(ctx, line); err != nil {
			a.showError(ctl)
			continue
		}
		a.printReply(ctl, html)
	}
}

func (a *app) chatCommand(ctx context.Context, ctl *chat.Controller, line string, html bool) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(a.out, chatHelp)
	case "/new":
		ctl.NewThread()
		fmt.Fprintln(a.out, faintStyle.Render("New conversation. It is saved once you send a message."))
	case "/sessions":
		if err := ctl.LoadSessions(ctx); err != nil {
			a.showError(ctl)
			return false, nil
		}
		a.printSessions(ctl)
	case "/open", "/delete":
		s, ok := a.pickSession(ctl, fields)
		if !ok {
			return false, nil
		}
		if fields[0] == "/open" {
			if err := ctl.Select(ctx, s.SessionID); err != nil {
				a.showError(ctl)
				return false, nil
			}
			a.printTranscript(ctl, html)
			return false, nil
		}
		err := ctl.DeleteSession(ctx, s.SessionID)
		switch {
		case errors.Is(err, chat.ErrNotConfirmed):
			fmt.Fprintln(a.out, "Cancelled.")
		case err != nil:
			a.showError(ctl)
		default:
			fmt.Fprintln(a.out, "Deleted.")
		}
	default:
		fmt.Fprintln(a.out, chatHelp)
	}
	return false, nil
}

func (a *app) pickSession(ctl *chat.Controller, fields []string) (client.Session, bool) {
	sessions := ctl.Sessions()
	if len(fields) != 2 {
		fmt.Fprintf(a.out, "usage: %s N\n", fields[0])
		return client.Session{}, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(sessions) {
		fmt.Fprintln(a.out, errorStyle.Render("No such conversation. Use /sessions to list them."))
		return client.Session{}, false
	}
	return sessions[n-1], true
}

func (a *app) printSessions(ctl *chat.Controller) {
	sessions := ctl.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No conversations yet.")
		return
	}
	active := ctl.ActiveID()
	for i, s := range sessions {
		mark := " "
		if s.SessionID == active {
			mark = "*"
		}
		when := s.StartedAt
		if s.LastMessageAt != nil {
			when = *s.LastMessageAt
		}
		fmt.Fprintf(a.out, "%s %d. %s %s\n", mark, i+1, s.Title,
			faintStyle.Render(fmt.Sprintf("(%d messages, %s)", s.MessageCount, when.Local().Format("Jan 2 15:04"))))
	}
}

func (a *app) printMessage(m chat.Message, rendered string, html bool) {
	label := youStyle.Render("You:")
	if m.Role == chat.RoleAssistant {
		label = botStyle.Render("Solace:")
	}
	text := m.Content
	if html {
		text = rendered
	}
	fmt.Fprintf(a.out, "%s %s\n", label, text)
}

func (a *app) printTranscript(ctl *chat.Controller, html bool) {
	for _, r := range ctl.Rendered() {
		a.printMessage(r.Message, r.HTML, html)
	}
}

func (a *app) printReply(ctl *chat.Controller, html bool) {
	msgs := ctl.Rendered()
	if n := len(msgs); n > 0 && msgs[n-1].Role == chat.RoleAssistant {
		a.printMessage(msgs[n-1].Message, msgs[n-1].HTML, html)
	}
	if c := ctl.Crisis(); c != nil {
		fmt.Fprintln(a.out, crisisStyle.Render("CRISIS SUPPORT"))
		msg := c.Message
		if html {
			msg = markup.Render(msg)
		}
		fmt.Fprintln(a.out, msg)
		for _, r := range c.Resources {
			fmt.Fprintf(a.out, "  %s: %s\n", r.Name, r.Contact)
		}
	}
}

func (a *app) showError(ctl *chat.Controller) {
	if msg := ctl.Err(); msg != "" {
		fmt.Fprintln(a.out, errorStyle.Render(msg))
		ctl.DismissError()
	}
}
