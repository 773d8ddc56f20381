package net

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	hiBlue = color.New(color.FgHiBlue).SprintFunc()
)

// Client connects to a game server and provides a terminal REPL.
type Client struct {
	conn       net.Conn
	playerName string // "P1" or "P2"
	in         *bufio.Reader
	out        io.Writer
	state      *StateView // last state received
}

// NewClient wraps a connection. A nil in or out falls back to the terminal.
func NewClient(conn net.Conn, playerName string, in io.Reader, out io.Writer) *Client {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Client{conn: conn, playerName: playerName, in: bufio.NewReader(in), out: out}
}

// Connect connects to a server, sends the deck choice, and runs the REPL.
func Connect(ctx context.Context, addr string, deckNumber int) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ClientMessage{Type: MsgJoin, DeckNumber: deckNumber}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Println("Connected! Waiting for game to start...")

	return NewClient(conn, "P2", nil, nil).RunREPL(ctx)
}

// RunREPL reads server messages and handles them interactively until the
// game ends.
func (c *Client) RunREPL(ctx context.Context) error {
	dec := json.NewDecoder(c.conn)
	enc := json.NewEncoder(c.conn)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case MsgNotify:
			c.renderEvent(msg.Event)

		case MsgYourTurn:
			c.state = msg.State
			c.renderState(msg.State)
			if msg.Error != "" {
				fmt.Fprintf(c.out, "%s %s\n", red("!"), msg.Error)
			}
			cmd, err := c.readCommand()
			if err != nil {
				return err
			}
			if err := enc.Encode(cmd); err != nil {
				return fmt.Errorf("send command: %w", err)
			}

		case MsgChooseTarget:
			c.renderTargets(msg.Prompt, msg.Candidates)
			reply, err := c.readTarget(msg.Candidates)
			if err != nil {
				return err
			}
			if err := enc.Encode(reply); err != nil {
				return fmt.Errorf("send target: %w", err)
			}

		case MsgGameOver:
			c.renderGameOver(msg.Winner, msg.Result)
			return nil
		}
	}
}

// --- Rendering ---

func (c *Client) renderEvent(e *EventView) {
	if e == nil {
		return
	}
	who := fmt.Sprintf("P%d", e.Side+1)
	if who == c.playerName {
		who = green(who)
	} else {
		who = red(who)
	}
	phase := ""
	if e.Phase != "" {
		phase = cyan("[" + e.Phase + "] ")
	}
	fmt.Fprintf(c.out, "  T%-2d %s %s%s\n", e.Turn, who, phase, e.Details)
}

func factionColor(faction string) func(a ...any) string {
	switch faction {
	case "Magical":
		return hiBlue
	case "Wild":
		return green
	default:
		return yellow
	}
}

func lifeColor(life int) string {
	switch {
	case life <= 10:
		return red(life)
	case life <= 25:
		return yellow(life)
	default:
		return green(life)
	}
}

func unitLine(i int, u UnitView) string {
	tag := ""
	if u.Exhausted {
		tag = " (exhausted)"
	}
	if u.Death != "" {
		tag += " death: " + u.Death
	}
	return fmt.Sprintf("  [%d] %s %s %d/%d%s", i+1, factionColor(u.Faction)(u.Name), u.Faction, u.Attack, u.Health, tag)
}

func (c *Client) renderSide(label string, p PlayerView) {
	fmt.Fprintf(c.out, "%s  morale %s  rations %d/%d (reserve %d)  hand %d  deck %d\n",
		bold(label), lifeColor(p.Life), p.Rations, p.MaxRation, p.Reserve, p.HandCount, p.DeckCount)
	if len(p.Board) == 0 {
		fmt.Fprintln(c.out, "  (empty board)")
	}
	for i, u := range p.Board {
		fmt.Fprintln(c.out, unitLine(i, u))
	}
}

func (c *Client) renderState(s *StateView) {
	if s == nil {
		return
	}
	fmt.Fprintf(c.out, "\n%s\n", bold(fmt.Sprintf("── Turn %d ──", s.Turn)))
	c.renderSide("Opponent", s.Opponent)
	fmt.Fprintln(c.out)
	c.renderSide("You", s.You)

	fmt.Fprintln(c.out, bold("Hand:"))
	for i, card := range s.You.Hand {
		stats := "spell"
		if !card.Spell {
			stats = fmt.Sprintf("%d/%d", card.Attack, card.Health)
		}
		text := ""
		if card.Text != "" {
			text = " - " + card.Text
		}
		fmt.Fprintf(c.out, "  [%d] %s (%d) %s%s\n", i+1, factionColor(card.Faction)(card.Name), card.Cost, stats, text)
	}
}

func (c *Client) renderTargets(prompt string, candidates []UnitView) {
	fmt.Fprintf(c.out, "\n%s\n", bold(prompt))
	for i, u := range candidates {
		owner := "enemy"
		if fmt.Sprintf("P%d", u.Side+1) == c.playerName {
			owner = "ally"
		}
		fmt.Fprintf(c.out, "%s (%s)\n", unitLine(i, u), owner)
	}
	fmt.Fprintln(c.out, "  [0] Decline")
}

func (c *Client) renderGameOver(winner int, result string) {
	fmt.Fprintln(c.out)
	switch {
	case winner < 0:
		fmt.Fprintln(c.out, bold(yellow("Draw!")))
	case fmt.Sprintf("P%d", winner+1) == c.playerName:
		fmt.Fprintln(c.out, bold(green("Victory!")))
	default:
		fmt.Fprintln(c.out, bold(red("Defeat.")))
	}
	if result != "" {
		fmt.Fprintln(c.out, result)
	}
}

// --- Input ---

const helpText = `Commands:
  play N        play hand card N
  attack A T    attack enemy T with your minion A
  end           end the turn`

func (c *Client) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readCommand reads until a well-formed command is entered. Slot numbers are
// translated to IDs using the last state.
func (c *Client) readCommand() (ClientMessage, error) {
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.readLine()
		if err != nil {
			return ClientMessage{}, err
		}
		cmd, err := c.parseCommand(line)
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		return cmd, nil
	}
}

func (c *Client) parseCommand(line string) (ClientMessage, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return ClientMessage{}, fmt.Errorf("%s", helpText)
	}
	s := c.state
	if s == nil {
		s = &StateView{}
	}
	switch fields[0] {
	case "end", "e", "pass":
		return ClientMessage{Type: MsgEndTurn}, nil
	case "play", "p":
		if len(fields) != 2 {
			return ClientMessage{}, fmt.Errorf("usage: play N")
		}
		n, err := slot(fields[1], len(s.You.Hand))
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{Type: MsgPlay, CardID: s.You.Hand[n].ID}, nil
	case "attack", "a":
		if len(fields) != 3 {
			return ClientMessage{}, fmt.Errorf("usage: attack A T")
		}
		a, err := slot(fields[1], len(s.You.Board))
		if err != nil {
			return ClientMessage{}, err
		}
		t, err := slot(fields[2], len(s.Opponent.Board))
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{Type: MsgAttack, Attacker: s.You.Board[a].ID, Target: s.Opponent.Board[t].ID}, nil
	default:
		return ClientMessage{}, fmt.Errorf("%s", helpText)
	}
}

// slot parses a 1-based position into an index.
func slot(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("pick a number between 1 and %d", n)
	}
	return i - 1, nil
}

func (c *Client) readTarget(candidates []UnitView) (ClientMessage, error) {
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.readLine()
		if err != nil {
			return ClientMessage{}, err
		}
		if line == "0" {
			return ClientMessage{Type: MsgTarget, Decline: true}, nil
		}
		i, err := slot(line, len(candidates))
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		return ClientMessage{Type: MsgTarget, ID: candidates[i].ID}, nil
	}
}
