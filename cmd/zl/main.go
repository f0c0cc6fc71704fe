package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zelador/internal/app"
	"zelador/internal/config"
	"zelador/internal/db"
	"zelador/internal/domain"
	"zelador/internal/engine"
	"zelador/internal/migrate"
	"zelador/internal/notify"
	"zelador/internal/repo"
	"zelador/internal/schedule"
	"zelador/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "zl",
	Short: "Zelador CLI",
	Long: `Zelador schedules recurring condominium maintenance and tells you what is due.
Concepts:
- Workspace: the .zelador directory holding the SQLite database; config lives in the DB and is imported explicitly.
- Condominium: the building whose maintenance activities are tracked.
- Activity: a recurring task (pump test, pest control) with a frequency label like "A cada semana" or "A cada 3 meses".
- Occurrence: one scheduled instance of an activity on a calendar day; marking it FEITO schedules the next one.
- Board: today's kanban (PROXIMAS / EM_ANDAMENTO / PENDENTE / HISTORICO), derived fresh on every read.
- Notifications: due, pre-alert and overdue notices; a daily scan can push them to webhooks.
- Event log: diary of changes, view with 'zl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ZELADOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("condo", "", "condominium id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("condo", rootCmd.PersistentFlags().Lookup("condo"))
}

func registerCommands() {
	rootCmd.AddCommand(condoCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(agendaCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(frequenciesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func condoCmd() *cobra.Command {
	c := &cobra.Command{Use: "condo", Short: "Manage condominiums"}
	c.AddCommand(condoCreateCmd())
	c.AddCommand(condoListCmd())
	c.AddCommand(condoShowCmd())
	c.AddCommand(condoUpdateCmd())
	c.AddCommand(condoDeleteCmd())
	c.AddCommand(condoConfigCmd())
	return c
}

func condoCreateCmd() *cobra.Command {
	var id, name, address string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create condominium",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg := config.Default(id)
			e := engine.New(conn, cfg)
			c, err := e.InitCondominium(cmd.Context(), id, name, address, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "condominium id")
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&address, "address", "", "address")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func condoListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List condominiums",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCondominiums(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func condoShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a condominium",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetCondominium(ctx, e.Config.Condo.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func condoUpdateCmd() *cobra.Command {
	var name, address, status string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a condominium",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				target := e.Config.Condo.ID
				var namePtr, addrPtr, statusPtr *string
				if cmd.Flags().Changed("name") {
					namePtr = &name
				}
				if cmd.Flags().Changed("address") {
					addrPtr = &address
				}
				if cmd.Flags().Changed("status") {
					statusPtr = &status
				}
				if err := e.Repo.UpdateCondominium(ctx, target, namePtr, addrPtr, statusPtr); err != nil {
					return err
				}
				c, err := e.Repo.GetCondominium(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&address, "address", "", "address")
	cmd.Flags().StringVar(&status, "status", "", "status (active, paused, archived)")
	return cmd
}

func condoDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a condominium",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteCondominium(ctx, e.Config.Condo.ID)
			})
		},
	}
	return cmd
}

func condoConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage condominium config",
	}
	cfg.AddCommand(condoConfigShowCmd())
	cfg.AddCommand(condoConfigImportCmd())
	return cfg
}

func condoConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show condominium config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func condoConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import condominium config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			condoID := cfg.Condo.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if condoID == "" {
					condoID = e.Config.Condo.ID
				}
				if err := e.Repo.UpsertCondoConfig(ctx, condoID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func activityCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
		Long:  "Activities are the recurring maintenance tasks. Each carries a frequency label; completing today's occurrence schedules the next one automatically.",
	}
	a.AddCommand(activityCreateCmd())
	a.AddCommand(activityListCmd())
	a.AddCommand(activityShowCmd())
	a.AddCommand(activityUpdateCmd())
	a.AddCommand(activityDeleteCmd())
	a.AddCommand(activityDoneCmd())
	a.AddCommand(activitySkipCmd())
	return a
}

func activityCreateCmd() *cobra.Command {
	var opts engine.ActivityCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if opts.CondoID == "" {
					opts.CondoID = e.Config.Condo.ID
				}
				a, err := e.CreateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "activity id (optional, deterministic UUID if omitted)")
	cmd.Flags().StringVar(&opts.CondoID, "condo", "", "condominium id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location inside the building")
	cmd.Flags().StringVar(&opts.Responsible, "responsible", "", "responsible party")
	cmd.Flags().StringVar(&opts.Frequency, "frequency", "", `frequency label (see 'zl frequencies')`)
	cmd.Flags().StringVar(&opts.ExpectedDate, "expected-date", "", "first expected date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.StartAt, "start-at", "", "start timestamp (RFC3339), used when no expected date")
	cmd.Flags().StringVar(&opts.CompletionDate, "completion-date", "", "date after which the cycle ends (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("frequency")
	return cmd
}

func activityListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListActivities(ctx, e.Config.Condo.ID, !all)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Frequency", "Location", "Active"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Frequency, a.Location, a.Active})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive activities")
	return cmd
}

func activityShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an activity with its history and current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				status, err := e.ActivityDayStatus(ctx, id)
				if err != nil {
					return err
				}
				history, err := e.Repo.ListOccurrences(ctx, id)
				if err != nil {
					return err
				}
				out := map[string]any{
					"activity": status.Activity,
					"status":   status.Status,
					"next_due": status.NextDue,
					"history":  history,
				}
				return printJSONOrTable(out)
			})
		},
	}
	return cmd
}

func activityUpdateCmd() *cobra.Command {
	var name, description, location, responsible, frequency, expectedDate, completionDate string
	var active bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.ActivityUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("location") {
				opts.Location = &location
			}
			if cmd.Flags().Changed("responsible") {
				opts.Responsible = &responsible
			}
			if cmd.Flags().Changed("frequency") {
				opts.Frequency = &frequency
			}
			if cmd.Flags().Changed("expected-date") {
				opts.ExpectedDate = &expectedDate
			}
			if cmd.Flags().Changed("completion-date") {
				opts.CompletionDate = &completionDate
			}
			if cmd.Flags().Changed("active") {
				opts.Active = &active
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.UpdateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().StringVar(&responsible, "responsible", "", "responsible party")
	cmd.Flags().StringVar(&frequency, "frequency", "", "frequency label")
	cmd.Flags().StringVar(&expectedDate, "expected-date", "", "expected date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&completionDate, "completion-date", "", "cycle end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&active, "active", true, "active flag")
	return cmd
}

func activityDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteActivity(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func activityDoneCmd() *cobra.Command {
	var date, notes string
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark an occurrence done (schedules the next one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setOccurrence(cmd.Context(), args[0], date, domain.OccurrenceFeito, notes)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func activitySkipCmd() *cobra.Command {
	var date, notes string
	cmd := &cobra.Command{
		Use:   "skip <id>",
		Short: "Skip an occurrence without scheduling the next one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setOccurrence(cmd.Context(), args[0], date, domain.OccurrencePulado, notes)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func setOccurrence(ctx context.Context, activityID, date, status, notes string) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		if date == "" {
			date = schedule.FormatDay(e.Today())
		}
		occ, err := e.SetOccurrenceStatus(ctx, activityID, date, status, notes, viper.GetString("actor-id"))
		if err != nil {
			return err
		}
		return printJSONOrTable(occ)
	})
}

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Today's board by day-level status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				board, err := e.Board(ctx, e.Config.Condo.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(board)
				}
				for _, col := range []string{domain.DayPendente, domain.DayEmAndamento, domain.DayProximas, domain.DayHistorico} {
					fmt.Printf("%s (%d)\n", col, len(board[col]))
					for _, s := range board[col] {
						next := "-"
						if s.NextDue != nil {
							next = *s.NextDue
						}
						fmt.Printf("  %s  %s  next: %s\n", s.Activity.ID, s.Activity.Name, next)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func agendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Upcoming due dates, soonest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Agenda(ctx, e.Config.Condo.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Next due", "Today", "Name", "Frequency", "Location"})
				for _, it := range items {
					next := "-"
					if it.NextDue != nil {
						next = *it.NextDue
					}
					tw.AppendRow(table.Row{next, it.DueToday, it.Activity.Name, it.Activity.Frequency, it.Activity.Location})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func notifyCmd() *cobra.Command {
	var leadDays int
	var push bool
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Show the notification feed, optionally pushing it to webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if push {
					return notify.NewScanner(e).RunOnce(ctx)
				}
				feed, err := e.Notifications(ctx, e.Config.Condo.ID, leadDays)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(feed)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"When", "Due", "Title", "Location", "Details"})
				for _, n := range feed {
					tw.AppendRow(table.Row{n.When, n.DueDate, n.Title, n.Location, n.Details})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&leadDays, "lead-days", -1, "pre-alert window in days (default from config)")
	cmd.Flags().BoolVar(&push, "push", false, "run the full scan and push to configured webhooks")
	return cmd
}

func frequenciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frequencies",
		Short: "List the recognized frequency labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := schedule.Labels()
			if viper.GetBool("json") {
				return printJSON(labels)
			}
			for _, l := range labels {
				fmt.Println(l)
			}
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, e.Config.Condo.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var scan bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveCondoAndConfig(cmd.Context(), workspace, viper.GetString("condo"), viper.GetString("actor-id"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
			if err != nil {
				return err
			}
			if scan {
				scanner := notify.NewScanner(e)
				if err := scanner.Start(); err != nil {
					return err
				}
				defer scanner.Stop()
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Zelador API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&scan, "scan", true, "run the daily notification scan alongside the server")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveCondoAndConfig(ctx, workspace, viper.GetString("condo"), viper.GetString("actor-id"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
