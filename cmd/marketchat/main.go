package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ugcmarket/realtime-go/internal/alerts"
	"github.com/ugcmarket/realtime-go/internal/auth"
	"github.com/ugcmarket/realtime-go/internal/chat"
	"github.com/ugcmarket/realtime-go/internal/chatid"
	"github.com/ugcmarket/realtime-go/internal/config"
	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/notify"
	"github.com/ugcmarket/realtime-go/internal/realtime"
	"github.com/ugcmarket/realtime-go/internal/rest"
	"github.com/ugcmarket/realtime-go/internal/session"
)

const commandTimeout = 15 * time.Second

type app struct {
	auth          *auth.Client
	sessions      *session.Store
	chat          *chat.Controller
	notifications *notify.Controller
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	validate := validator.New(validator.WithRequiredStructEnabled())
	codec := dto.NewCodec(validate)

	restClient := rest.New(cfg.APIBaseURL, cfg.RequestTimeout, codec, logger)
	sessions := session.NewStore(logger)
	authClient := auth.New(restClient, sessions, validate, logger)
	transport := realtime.NewManager(cfg.DialTimeout, logger)
	alerter := alerts.NewLogSink(logger)

	chatController := chat.NewController(restClient, transport, sessions, chatid.New(), codec, alerter, logger)
	notificationController := notify.NewController(restClient, transport, sessions, codec, alerter, func() {
		logger.Warn().Msg("credentials rejected, clearing session")
		sessions.Clear()
	}, logger)

	defer func() {
		chatController.Close()
		notificationController.Close()
		transport.Close()
	}()

	a := &app{
		auth:          authClient,
		sessions:      sessions,
		chat:          chatController,
		notifications: notificationController,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s (%s)\n", cfg.AppName, cfg.APIBaseURL)
	printHelp()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if a.handle(ctx, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// handle runs one command line; it returns true when the client should exit.
func (a *app) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true

	case "/help":
		printHelp()

	case "/login":
		if len(fields) != 3 {
			fmt.Println("usage: /login <email> <password>")
			return false
		}
		sess, err := a.auth.Login(ctx, fields[1], fields[2])
		if err != nil {
			fmt.Println("login failed:", err)
			return false
		}
		fmt.Printf("logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
		if err := a.notifications.Refresh(ctx); err != nil {
			fmt.Println("notification refresh failed:", err)
		}

	case "/logout":
		if err := a.auth.Logout(ctx); err != nil {
			fmt.Println("logout:", err)
		}
		fmt.Println("logged out")

	case "/chat":
		if len(fields) < 2 {
			fmt.Println("usage: /chat <user-id> [display-name]")
			return false
		}
		name := strings.Join(fields[2:], " ")
		if err := a.chat.Select(ctx, fields[1], name); err != nil {
			fmt.Println("select chat failed:", err)
			return false
		}
		fmt.Printf("conversation %s opened\n", a.chat.ActiveChatID())
		a.printHistory()

	case "/history":
		a.printHistory()

	case "/notifications":
		items := a.notifications.Items()
		fmt.Printf("%d notifications, %d unread\n", len(items), a.notifications.UnreadCount())
		for _, item := range items {
			marker := " "
			if !item.IsRead {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s: %s (%s)\n", marker, item.Type, item.Title, item.Content, item.ID)
		}

	case "/refresh":
		if err := a.notifications.Refresh(ctx); err != nil {
			fmt.Println("refresh failed:", err)
		}

	case "/read":
		if len(fields) < 2 {
			fmt.Println("usage: /read <notification-id> [more-ids...]")
			return false
		}
		if err := a.notifications.MarkRead(ctx, fields[1:]); err != nil {
			fmt.Println("mark read failed:", err)
		}

	default:
		if strings.HasPrefix(fields[0], "/") {
			fmt.Println("unknown command; /help for usage")
			return false
		}
		if err := a.chat.Send(ctx, line); err != nil {
			fmt.Println("send failed:", err)
		}
	}

	return false
}

func (a *app) printHistory() {
	sess := a.sessions.Current()
	localID := ""
	if sess.Authenticated() {
		localID = sess.User.ID
	}

	for _, message := range a.chat.Messages() {
		who := message.SenderID
		if message.SenderID == localID {
			who = "me"
		}
		fmt.Printf("[%s] %s: %s\n", message.Timestamp.Format("15:04:05"), who, message.Content)
	}
}

func printHelp() {
	fmt.Println(`commands:
  /login <email> <password>      authenticate
  /logout                        end the session
  /chat <user-id> [name]         open a conversation
  /history                       print the active conversation
  /notifications                 list notifications
  /refresh                       re-fetch notifications
  /read <id> [id...]             mark notifications read
  /quit                          exit
anything else is sent to the active conversation`)
}
