package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/execlive/pkg/assistant"
	"github.com/haivivi/execlive/pkg/audio/pcm"
	"github.com/haivivi/execlive/pkg/audio/portaudio"
	"github.com/haivivi/execlive/pkg/canvasfeed"
	"github.com/haivivi/execlive/pkg/cli"
	"github.com/haivivi/execlive/pkg/live"
	"github.com/haivivi/execlive/pkg/playback"
	"github.com/haivivi/execlive/pkg/tools"
)

const (
	playbackBlock = 20 * time.Millisecond
	statusPeriod  = 200 * time.Millisecond
	feedOff       = "off"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Talk to the assistant through the default audio devices",
	Long: `Connect to the Live API and talk to the assistant.

The microphone streams continuously; the model's answers play on the default
output. Typed lines are sent as text turns. Lines starting with / are
console commands:

  /quit               end the session and exit
  /reconnect          disconnect and connect again (applies /persona)
  /persona <id>       select the persona for the next connect
  /action <name> [data-json]
                      send a canvas action (reply, send_draft,
                      discard_draft, archive)
  /dismiss <id>       remove a card from the canvas
  /camera             toggle the camera (not available on terminals)

With a feed address the canvas is served over WebSocket at /ws.`,
	RunE: runAssistant,
}

var (
	runPersona  string
	runVoice    string
	runModel    string
	runFeed     string
	runNoStatus bool
)

func init() {
	runCmd.Flags().StringVarP(&runPersona, "persona", "p", "", "persona id (default from context, else maya)")
	runCmd.Flags().StringVar(&runVoice, "voice", "", "voice override")
	runCmd.Flags().StringVar(&runModel, "model", "", "Live model override")
	runCmd.Flags().StringVar(&runFeed, "feed", "", `canvas feed address (default from context; "off" disables)`)
	runCmd.Flags().BoolVar(&runNoStatus, "no-status", false, "disable the live status line")
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runAssistant(cmd *cobra.Command, args []string) error {
	cctx, err := getContext()
	if err != nil {
		return err
	}
	if cctx.APIKey == "" {
		cli.PrintWarning("no API key; set GEMINI_API_KEY or store one with 'execlive config add-context'")
	}
	loc, err := cctx.Location()
	if err != nil {
		return err
	}
	catalog, err := loadPersonas()
	if err != nil {
		return err
	}
	personaID := first(runPersona, cctx.Persona)
	if _, err := catalog.Get(personaID); err != nil {
		return err
	}

	var clientOpts []live.Option
	if cctx.BaseURL != "" {
		clientOpts = append(clientOpts, live.WithBaseURL(cctx.BaseURL))
	}
	if cctx.MaxRetries > 0 {
		clientOpts = append(clientOpts, live.WithRetry(cctx.MaxRetries))
	}

	out, err := portaudio.NewOutputStream(pcm.L16Mono24K, playbackBlock)
	if err != nil {
		return fmt.Errorf("open speaker: %w", err)
	}
	defer out.Close()
	player := playback.NewPlayer(out, pcm.L16Mono24K, playbackBlock)
	defer player.Close()

	a, err := assistant.New(assistant.Config{
		Client:     live.NewClient(cctx.APIKey, clientOpts...),
		Devices:    portaudio.Devices{},
		Playback:   playback.NewScheduler(player, player, pcm.L16Mono24K),
		Personas:   catalog,
		Persona:    personaID,
		Model:      first(runModel, cctx.Model),
		Voice:      first(runVoice, cctx.Voice),
		EnvOptions: []tools.EnvOption{tools.WithLocation(loc)},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	con := newConsole(os.Stderr, !runNoStatus && isatty.IsTerminal(os.Stderr.Fd()))
	defer a.Observe(assistant.ObserverFuncs{Error: con.banner})()

	g.Go(func() error { return player.Run(ctx) })
	if addr := first(runFeed, cctx.FeedAddr); addr != "" && addr != feedOff {
		g.Go(func() error { return canvasfeed.Serve(ctx, addr, a) })
	}
	if con.live {
		g.Go(func() error {
			con.loop(ctx, a)
			return nil
		})
	}

	if err := a.Connect(ctx); err != nil && errors.Is(err, live.ErrMissingAPIKey) {
		stop()
		g.Wait()
		return err
	}
	go readCommands(ctx, cmd.InOrStdin(), a, con, stop)

	<-ctx.Done()
	a.Disconnect()
	con.clear()
	return g.Wait()
}

// readCommands turns typed lines into text turns and console commands. It
// returns at EOF, which ends the run.
func readCommands(ctx context.Context, r io.Reader, a *assistant.Assistant, con *console, stop func()) {
	defer stop()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := a.SendText(line); err != nil {
				con.banner(err)
			}
			continue
		}
		name, rest, _ := strings.Cut(line[1:], " ")
		rest = strings.TrimSpace(rest)
		var err error
		switch name {
		case "quit", "exit":
			return
		case "reconnect":
			a.Disconnect()
			err = a.Connect(ctx)
		case "persona":
			if err = a.SetPersona(rest); err == nil {
				con.info(fmt.Sprintf("persona %s selected; /reconnect to apply", a.Persona().Name))
			}
		case "action":
			action, raw, _ := strings.Cut(rest, " ")
			var data map[string]any
			if data, err = tools.ParseArgs(strings.TrimSpace(raw)); err == nil {
				err = a.HandleAction(tools.Action(action), data)
			}
		case "dismiss":
			if !a.Dismiss(rest) {
				err = fmt.Errorf("no card %q", rest)
			}
		case "camera":
			_, err = a.ToggleCamera(ctx)
		default:
			err = fmt.Errorf("unknown command /%s", name)
		}
		if err != nil {
			con.banner(err)
		}
	}
}

// console writes the status line and banners to a terminal.
type console struct {
	w      io.Writer
	styles cli.Styles
	live   bool

	mu sync.Mutex
}

func newConsole(w io.Writer, live bool) *console {
	return &console{w: w, styles: cli.NewStyles(cli.DefaultTheme), live: live}
}

func (c *console) loop(ctx context.Context, a *assistant.Assistant) {
	ticker := time.NewTicker(statusPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.status(cli.Status{
				Styles:  c.styles,
				Persona: a.Persona().Name,
				Session: a.Status().String(),
				Agent:   string(a.State()),
				Camera:  a.CameraOn(),
				Volume:  a.Volume(),
			})
		}
	}
}

func (c *console) status(s cli.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, "\r\x1b[2K"+s.Render())
}

func (c *console) clear() {
	if !c.live {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, "\r\x1b[2K")
}

func (c *console) banner(err error) {
	c.println(c.styles.Banner(err))
}

func (c *console) info(msg string) {
	c.println(c.styles.Help.Render(msg))
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live {
		fmt.Fprint(c.w, "\r\x1b[2K")
	}
	fmt.Fprintln(c.w, s)
}
