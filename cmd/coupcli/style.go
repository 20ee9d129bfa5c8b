package main

import (
	"github.com/pterm/pterm"

	"github.com/arfandy/coup-server/pkg/coup"
)

// render draws the table when it changed since the last poll and returns the
// snapshot it drew; an unchanged table returns "".
func render(view coup.View, self int, lastRendered string) string {
	snapshot := tableSnapshot(view)
	if snapshot == lastRendered {
		return ""
	}

	var opponents []pterm.Panel
	var mine pterm.Panel
	for _, p := range view.Players {
		if p.ID == self {
			mine = pterm.Panel{Data: playerBox(p, view, true)}
			continue
		}
		opponents = append(opponents, pterm.Panel{Data: playerBox(p, view, false)})
	}

	message := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1).
		WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter().
		Sprintf("%s\n", view.Message)

	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		opponents,
		{{Data: message}},
		{mine},
	}).Render()
	return snapshot
}

func playerBox(p coup.PlayerView, view coup.View, main bool) string {
	hpadding := 4
	if main {
		hpadding = 10
	}
	pbox := pterm.DefaultBox.WithLeftPadding(hpadding).WithRightPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)

	var status string
	switch {
	case p.IsOut:
		status = pterm.LightRed("Out")
	case p.ID == view.CurrentPlayerIdx:
		status = pterm.LightGreen("On turn")
	default:
		status = "Waiting"
	}

	body := pterm.Sprintfln("%s\nCoins: %d\nInfluence: %d", status, p.Coins, p.InfluenceCount)
	if main {
		hand := ""
		for i, r := range view.YourCards {
			if i > 0 {
				hand += " - "
			}
			hand += string(r)
		}
		body += pterm.BgGreen.Sprintf("%s", hand) + "\n"
	}

	title := p.Name
	if main {
		title = pterm.LightCyan(p.Name + " (you)")
	}
	return pbox.WithTitle(title).WithTitleTopLeft().Sprint(body)
}

// tableSnapshot is a cheap fingerprint of everything render displays.
func tableSnapshot(view coup.View) string {
	s := string(view.GameState) + "|" + view.Message
	for _, p := range view.Players {
		s += pterm.Sprintf("|%d:%d:%d:%v", p.ID, p.Coins, p.InfluenceCount, p.IsOut)
	}
	for _, r := range view.YourCards {
		s += "|" + string(r)
	}
	return s
}
