package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"grognon/internal/models"
	"grognon/internal/utils"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderConnections(w io.Writer, connections []models.Connection) {
	if len(connections) == 0 {
		_, _ = fmt.Fprintln(w, "(0 connections)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Type", "URL", "Connected", "Last connected", "Created", "Last error"})
	for _, con := range connections {
		lastError := ""
		if con.LastError != nil {
			lastError = *con.LastError
		}
		t.AppendRow(table.Row{
			con.ConnectionId,
			con.DbType,
			con.ConnectionUrl,
			yesNo(con.Connected),
			utils.DisplayTime(con.LastConnectedAt.Ptr()),
			utils.DisplayTime(con.CreatedAt.Ptr()),
			lastError,
		})
	}
	t.Render()
}

func renderCrons(w io.Writer, crons []models.Cron) {
	if len(crons) == 0 {
		_, _ = fmt.Fprintln(w, "(0 crons)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Connection", "Name", "Schedule", "Last run", "Command"})
	for _, c := range crons {
		t.AppendRow(table.Row{
			c.CronId,
			c.ConnectionId,
			c.Name,
			c.Schedule,
			utils.DisplayTime(c.LastRunAt.Ptr()),
			c.Command,
		})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
