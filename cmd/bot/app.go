package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/cmd/bot/config"
	"github.com/fennec-bot/fennec/cmd/bot/monitoring"
	"github.com/fennec-bot/fennec/pkg/dataaccess"
	"github.com/fennec-bot/fennec/pkg/dataaccess/connection"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/fennec-bot/fennec/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the view of the application handed to every workflow.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// Store returns the ticket store.
	Store() dataaccess.TicketStore

	// TicketLimiter returns the per-user ticket-creation limiter.
	TicketLimiter() *userLimiter

	// Context returns the application context, cancelled on shutdown.
	Context() context.Context
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the monitoring server.
	r *mux.Router

	// svr is the monitoring server.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// store is the ticket store.
	store dataaccess.TicketStore

	// limiter throttles ticket creation per user.
	limiter *userLimiter

	// ctx is cancelled when the application shuts down.
	ctx    context.Context
	cancel context.CancelFunc

	// registeredCmds holds the slash commands registered per guild so they
	// can be removed on shutdown.
	mu             sync.Mutex
	registeredCmds map[string][]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger:         l,
		r:              r,
		limiter:        newUserLimiter(rate.Every(30*time.Second), 1),
		registeredCmds: make(map[string][]*discordgo.ApplicationCommand),
	}
}

func (a *App) Run() error {
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if err := a.initStore(); err != nil {
		return fmt.Errorf("error initializing ticket store: %w", err)
	}

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	sig := <-c
	a.Info("Received shutdown signal", slog.String("signal", sig.String()))
	if err := a.ShutdownHook(); err != nil {
		a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// initStore selects the store backend: MongoDB when a URI has been
// configured, the local JSON file otherwise.
func (a *App) initStore() error {
	if config.MongoUri == "" {
		a.Info("Using file-backed ticket store", slog.String("path", config.DataFile))
		a.store = dataaccess.NewFileStore(config.DataFile, a.Log())
		return nil
	}

	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = config.MongoUri

	client, err := mongoConn.Connect()
	if err != nil {
		return fmt.Errorf("error connecting to mongo: %w", err)
	}

	a.Info("Using mongo-backed ticket store")
	a.store = dataaccess.NewMongoStore(client, a.Log())
	return nil
}

func (a *App) ShutdownHook() error {
	// Abort any closes waiting out their delay before the destructive
	// delete step.
	a.cancel()

	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}

	// Stop the monitoring server last so health stays queryable through the
	// Discord teardown.
	if a.svr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.svr.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down monitoring server: %w", err)
		}
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers

	// Catch-all event handler feeding the event counter.
	dg.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
		if e.Type != "" {
			monitoring.TotalDiscordEvents.WithLabelValues(e.Type).Inc()
		} else {
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	})

	a.s = dg
	return nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash controllers
		map[string]commandController{
			setupCmd.Name:  setupCmdController,
			ticketCmd.Name: ticketCmdController,
		},
		// Component controllers
		map[string]commandProcessor{
			CreateTicketMenuID:  createTicket,
			CloseTicketButtonID: closeTicketButton,
		}))
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for the health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Log())
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Log())
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		if err := a.registerGuildCommands(g.ID); err != nil {
			return err
		}
	}
	return nil
}

// registerGuildCommands registers the setup and ticket commands for one
// guild, remembering the returned commands for removal on shutdown.
func (a *App) registerGuildCommands(guildID string) error {
	cmds := make([]*discordgo.ApplicationCommand, 0, 2)

	for _, cmd := range []*discordgo.ApplicationCommand{setupCmd, ticketCmd} {
		created, err := a.s.ApplicationCommandCreate(config.ApplicationId, guildID, cmd)
		if err != nil {
			return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, guildID, err)
		}
		cmds = append(cmds, created)
	}

	a.mu.Lock()
	a.registeredCmds[guildID] = cmds
	a.mu.Unlock()
	return nil
}

func (a *App) unregisterSlashCommands() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for guildID, cmds := range a.registeredCmds {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(config.ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
		delete(a.registeredCmds, guildID)
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Store() dataaccess.TicketStore {
	return a.store
}

func (a *App) TicketLimiter() *userLimiter {
	return a.limiter
}

func (a *App) Context() context.Context {
	return a.ctx
}
