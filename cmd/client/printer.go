package main

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/ws"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Settings mirrors /api/settings.
type Settings struct {
	GroupingWindowSeconds   int `json:"groupingWindowSeconds"`
	TimestampDividerMinutes int `json:"timestampDividerMinutes"`
}

// printer renders the conversation with the given user.
// Consecutive messages of one sender within the grouping window share a header,
// and a time divider is printed when the conversation resumes after a pause.
type printer struct {
	out      io.Writer
	self     domain.UserID
	peer     domain.UserID
	names    map[domain.UserID]string
	grouping time.Duration
	divider  time.Duration
	colours  bool
	last     *domain.Message
}

func newPrinter(out io.Writer, self, peer domain.UserID, settings Settings, colours bool) *printer {
	return &printer{
		out:      out,
		self:     self,
		peer:     peer,
		names:    make(map[domain.UserID]string),
		grouping: time.Duration(settings.GroupingWindowSeconds) * time.Second,
		divider:  time.Duration(settings.TimestampDividerMinutes) * time.Minute,
		colours:  colours,
	}
}

func (p *printer) paint(style color.Style, s string) string {
	if !p.colours {
		return s
	}
	return style.Render(s)
}

func (p *printer) name(id domain.UserID) string {
	if name, ok := p.names[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(int64(id), 10)
}

// Presence renders the snapshot as a table.
func (p *printer) Presence(users []ws.UserPayload) {
	for _, u := range users {
		p.names[domain.UserID(u.ID)] = u.Name
	}
	fmt.Fprintln(p.out, p.paint(color.New(color.FgYellow), fmt.Sprintf("%d user(s) online", len(users))))

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"ID", "Name", ""})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, u := range users {
		marker := ""
		switch domain.UserID(u.ID) {
		case p.self:
			marker = "(you)"
		case p.peer:
			marker = "(talking to)"
		}
		table.Append([]string{strconv.FormatInt(u.ID, 10), u.Name, marker})
	}
	table.Render()
}

// History prints only the messages exchanged with the peer.
func (p *printer) History(messages []domain.Message) {
	for _, m := range messages {
		if m.Involves(p.peer) {
			p.Message(m)
		}
	}
}

func (p *printer) Message(m domain.Message) {
	dividerPrinted := false
	if p.last == nil || m.Timestamp.Sub(p.last.Timestamp) >= p.divider {
		fmt.Fprintln(p.out, p.paint(color.New(color.FgGray),
			fmt.Sprintf("──── %s ────", m.Timestamp.Local().Format("Mon 02 Jan 15:04"))))
		dividerPrinted = true
	}

	grouped := !dividerPrinted &&
		p.last.SenderID == m.SenderID &&
		m.Timestamp.Sub(p.last.Timestamp) <= p.grouping
	if !grouped {
		style := color.New(color.FgCyan, color.OpBold)
		if m.SenderID == p.self {
			style = color.New(color.FgGreen, color.OpBold)
		}
		fmt.Fprintf(p.out, "%s  %s\n", p.paint(style, p.name(m.SenderID)), m.Timestamp.Local().Format(time.TimeOnly))
	}
	fmt.Fprintf(p.out, "  %s\n", m.Content)
	p.last = &m
}

func (p *printer) Rejected(r ws.RejectedPayload) {
	fmt.Fprintln(p.out, p.paint(color.New(color.FgRed), fmt.Sprintf("✗ not sent [%s] %s", r.Code, r.Reason)))
}
