// Command chatwatch polls a chat server and prints new messages with their
// sentiment labels as they arrive.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chat-sentiment/backend/client"
	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/sentiment"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"http://localhost:5102"`
	Interval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	Timeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	Colours   bool          `envconfig:"COLOURS" default:"true"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"warn"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("CHATWATCH", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	author := flag.String("author", "", "author id used with -send")
	send := flag.String("send", "", "post one message before watching")
	once := flag.Bool("once", false, "poll a single time and exit")
	flag.Parse()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.LogLevel
	logConfig.JSON = false
	log := logger.New(logConfig)

	c, err := client.New(cfg.ServerURL, nil)
	if err != nil {
		log.LogError(err, "Invalid server URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *send != "" {
		sendCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		msg, err := c.PostMessage(sendCtx, *author, *send)
		cancel()
		if err != nil {
			log.LogError(err, "Failed to send message")
			os.Exit(1)
		}
		fmt.Printf("sent #%d (%s)\n", msg.ID, labelText(msg.SentimentLabel, cfg.Colours))
	}

	tracker := client.NewStatusTracker(log)
	tracker.OnChange(func(_, to client.ConnectionState) {
		fmt.Println(statusLine(to, cfg.Colours))
	})

	poller := client.NewPoller(c, log,
		client.WithInterval(cfg.Interval),
		client.WithStatusTracker(tracker),
		client.OnNew(func(msgs []models.Message) {
			renderMessages(os.Stdout, msgs, cfg.Colours)
		}),
	)

	if *once {
		if _, err := poller.Poll(ctx); err != nil {
			log.LogError(err, "Poll failed")
			os.Exit(1)
		}
		return
	}

	_ = poller.Run(ctx)
}

func renderMessages(w io.Writer, msgs []models.Message, colours bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Time", "Author", "Sentiment", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range msgs {
		table.Append([]string{
			strconv.FormatUint(m.ID, 10),
			m.CreatedAt.Local().Format("15:04:05"),
			m.AuthorID,
			labelText(m.SentimentLabel, colours),
			m.Text,
		})
	}
	table.Render()
}

func labelText(label sentiment.Label, colours bool) string {
	text := string(label)
	if !colours {
		return text
	}
	switch label {
	case sentiment.Positive:
		return color.Green.Render(text)
	case sentiment.Negative:
		return color.Red.Render(text)
	default:
		return color.Gray.Render(text)
	}
}

func statusLine(state client.ConnectionState, colours bool) string {
	line := fmt.Sprintf("  ====== %s ======", state)
	if !colours {
		return line
	}
	switch state {
	case client.StateConnected:
		return color.New(color.BgBlack, color.FgGreen).Render(line)
	case client.StateDisconnected:
		return color.New(color.BgBlack, color.FgRed).Render(line)
	default:
		return color.New(color.BgBlack, color.FgYellow).Render(line)
	}
}
