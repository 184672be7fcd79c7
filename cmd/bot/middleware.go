package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/cmd/bot/monitoring"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/fennec-bot/fennec/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// commandController resolves a slash command invocation to the processor for
// its subcommand, after any permission checks. A nil processor with a nil
// error means the controller already answered the interaction.
type commandController func(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error)

// commandProcessor handles one interaction.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// Run after the handler, as the status code is not available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler dispatches interactions: slash commands by name through
// their controller, component interactions (buttons and select menus) by
// custom ID. Processor errors are logged and answered with a generic
// ephemeral message so no interaction is left hanging.
func interactionHandler(a IApp, slash map[string]commandController, components map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name := i.ApplicationCommandData().Name
			t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(name))
			defer t.ObserveDuration()

			controller, ok := slash[name]
			if !ok {
				a.Log().Error("No controller found for command", slog.String("command", name))
				if err := respondSlashError(a, i); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
				return
			}

			processor, err := controller(a, i)
			if err != nil {
				a.Log().Error(fmt.Sprintf("Error getting processor for command %s", name),
					slog.String(logging.KeyError, err.Error()))
				if err := respondSlashError(a, i); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
				return
			} else if processor == nil {
				// The controller already answered (e.g. a permission rejection).
				return
			}

			if err := processor(a, i); err != nil {
				a.Log().Error(fmt.Sprintf("Error processing command %s", name),
					slog.String(logging.KeyError, err.Error()))
				if err := respondSlashError(a, i); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
			}

		case discordgo.InteractionMessageComponent:
			customID := i.MessageComponentData().CustomID
			t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(customID))
			defer t.ObserveDuration()

			processor, ok := components[customID]
			if !ok {
				// Components from other features or stale messages.
				a.Log().Debug("No processor found for component", slog.String("custom_id", customID))
				return
			}

			if err := processor(a, i); err != nil {
				a.Log().Error(fmt.Sprintf("Error processing component %s", customID),
					slog.String(logging.KeyError, err.Error()))
				if err := respondSlashError(a, i); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
			}

		default:
			// Autocomplete, modals etc. are not part of this bot.
		}
	}
}
