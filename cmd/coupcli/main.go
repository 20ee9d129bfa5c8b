// Command coupcli is a terminal client for the game server. It matchmakes,
// polls /state, renders the table, and prompts for whatever decision the
// server's ui_context asks of this seat. All rules live server-side.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/arfandy/coup-server/pkg/coup"
)

const pollInterval = 500 * time.Millisecond

type client struct {
	http     *http.Client
	baseURL  string
	playerID int
	gameID   int
}

func main() {
	baseURL := os.Getenv("SERVER_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("C", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("oup", pterm.FgDarkGray.ToStyle()),
	).Render()

	name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your name").Show()
	pterm.Println()

	c := &client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
	if err := c.matchmake(name); err != nil {
		pterm.Error.Printfln("Matchmaking failed: %v", err)
		os.Exit(1)
	}
	pterm.Info.Printfln("Seated as player %d in game %d", c.playerID, c.gameID)

	spinner, _ := pterm.DefaultSpinner.Start("Waiting for players ...")
	waiting := true

	var lastRendered string
	for {
		view, err := c.fetchState()
		if err != nil {
			time.Sleep(pollInterval)
			continue
		}

		if view.GameState == coup.PhaseWaitingForPlayers {
			time.Sleep(pollInterval)
			continue
		}
		if waiting {
			spinner.Success()
			waiting = false
		}

		if snapshot := render(view, c.playerID, lastRendered); snapshot != "" {
			lastRendered = snapshot
		}

		if view.GameState == coup.PhaseGameOver {
			pterm.Success.Printfln("%s", view.Message)
			return
		}

		if view.UIContext.Type != "" {
			if err := c.answerPrompt(view); err != nil {
				pterm.Error.Printfln("Request failed: %v", err)
			}
			// The answer changes the room; force a re-render on the next poll.
			lastRendered = ""
		}
		time.Sleep(pollInterval)
	}
}

func (c *client) matchmake(name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})
	resp, err := c.http.Post(c.baseURL+"/matchmake", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	var out struct {
		PlayerID int `json:"player_id"`
		GameID   int `json:"game_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	c.playerID = out.PlayerID
	c.gameID = out.GameID
	return nil
}

func (c *client) fetchState() (coup.View, error) {
	url := fmt.Sprintf("%s/state?player_id=%d&game_id=%d", c.baseURL, c.playerID, c.gameID)
	resp, err := c.http.Get(url)
	if err != nil {
		return coup.View{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return coup.View{}, fmt.Errorf("server returned %s", resp.Status)
	}
	var probe struct {
		Error string `json:"error"`
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return coup.View{}, err
	}
	if json.Unmarshal(raw, &probe) == nil && probe.Error != "" {
		return coup.View{}, fmt.Errorf("%s", probe.Error)
	}
	var view coup.View
	if err := json.Unmarshal(raw, &view); err != nil {
		return coup.View{}, err
	}
	return view, nil
}

func (c *client) sendAction(payload map[string]any) error {
	payload["player_id"] = c.playerID
	payload["game_id"] = c.gameID
	body, _ := json.Marshal(payload)
	resp, err := c.http.Post(c.baseURL+"/action", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

// answerPrompt asks the user for the one decision ui_context carries and
// sends it.
func (c *client) answerPrompt(view coup.View) error {
	ui := view.UIContext
	switch ui.Type {
	case coup.UISelectingTarget:
		return c.sendAction(map[string]any{
			"action":    string(ui.Action),
			"target_id": promptTarget(view, c.playerID),
		})

	case coup.UIBroadcastResponse:
		options := []string{string(coup.ResponsePass)}
		if ui.CanChallenge {
			options = append(options, string(coup.ResponseChallenge))
		}
		if ui.CanBlock {
			options = append(options, string(coup.ResponseBlock))
		}
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText(fmt.Sprintf("Respond to %s", ui.Action)).
			WithOptions(options).Show()
		return c.sendAction(map[string]any{"response": choice})

	case coup.UIChallengeBlock:
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Your action was blocked").
			WithOptions([]string{string(coup.ResponsePass), string(coup.ResponseChallenge)}).Show()
		return c.sendAction(map[string]any{"response": choice})

	case coup.UILoseInfluence:
		card, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Choose an influence to lose").
			WithOptions(roleNames(ui.Cards)).Show()
		return c.sendAction(map[string]any{"card": card})

	case coup.UIAmbassadorExchange:
		return c.sendAction(map[string]any{
			"action": "ConfirmExchange",
			"cards":  promptExchange(ui.Cards, ui.NumToKeep),
		})
	}
	return nil
}

// promptTarget offers the living opponents as targets.
func promptTarget(view coup.View, self int) int {
	byLabel := make(map[string]int)
	var options []string
	for _, p := range view.Players {
		if p.ID == self || p.IsOut {
			continue
		}
		label := strconv.Itoa(p.ID) + ": " + p.Name
		byLabel[label] = p.ID
		options = append(options, label)
	}
	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Choose a target").WithOptions(options).Show()
	return byLabel[choice]
}

// promptExchange picks the cards to keep, one at a time.
func promptExchange(pool []coup.Role, keep int) []string {
	remaining := roleNames(pool)
	var kept []string
	for i := 0; i < keep; i++ {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText(fmt.Sprintf("Choose card %d of %d to keep", i+1, keep)).
			WithOptions(remaining).Show()
		kept = append(kept, choice)
		for j, r := range remaining {
			if r == choice {
				remaining = append(remaining[:j], remaining[j+1:]...)
				break
			}
		}
	}
	return kept
}

func roleNames(roles []coup.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
