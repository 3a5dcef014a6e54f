// cmd/settlersd/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tablemirror/settlers/engine"
	"github.com/tablemirror/settlers/internal/auth"
	"github.com/tablemirror/settlers/internal/autoplay"
	"github.com/tablemirror/settlers/internal/cache"
	"github.com/tablemirror/settlers/internal/command"
	"github.com/tablemirror/settlers/internal/config"
	"github.com/tablemirror/settlers/internal/database"
	"github.com/tablemirror/settlers/internal/models"
	"github.com/tablemirror/settlers/internal/table"
	"github.com/tablemirror/settlers/internal/ws"
)

var demoNicknames = []string{"alice", "bob", "carol", "dave"}

func main() {
	demo := flag.Bool("demo", false, "run one autoplayed game and print it instead of serving")
	demoSeed := flag.Int64("seed", time.Now().UnixNano(), "random seed for --demo")
	demoPlayers := flag.Int("players", 4, "seats for --demo (2-4)")
	flag.Parse()

	cfg := config.Load()
	cfg.ConfigureLogging()

	if *demo {
		if err := runDemo(*demoSeed, *demoPlayers); err != nil {
			logrus.WithError(err).Fatal("demo failed")
		}
		return
	}
	if err := serve(cfg); err != nil {
		logrus.WithError(err).Fatal("settlersd exited")
	}
}

// runDemo drives a full random-legal game through the table layer and
// prints the command-layer rendering after every applied action.
func runDemo(seed int64, players int) error {
	if players < 2 || players > 4 {
		return fmt.Errorf("--players must be 2-4, got %d", players)
	}
	rng := rand.New(rand.NewSource(seed))
	t, err := table.New("demo", demoNicknames[:players], engine.RandomLayout(rng))
	if err != nil {
		return err
	}
	logrus.WithField("seed", seed).Info("starting demo game")

	driver := autoplay.New(rng)
	for steps := 0; t.Game.Phase != engine.PhaseGameOver; steps++ {
		if steps >= autoplay.MaxSteps {
			return fmt.Errorf("demo stalled after %d actions", steps)
		}
		a, err := driver.Next(t.Game)
		if err != nil {
			return err
		}
		if _, err := t.Apply(a); err != nil {
			return fmt.Errorf("%s rejected: %w", a.Kind, err)
		}
		fmt.Println(command.Summary(t))
		fmt.Println("---")
	}
	return nil
}

func serve(cfg config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var snapCache *cache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Warn("redis unreachable, caching disabled")
			rdb = nil
		}
		snapCache = cache.New(rdb, 0)
	}

	authSvc, err := auth.New(cfg.JWTSecret, 0)
	if err != nil {
		return err
	}

	tables := table.NewManager()
	dispatcher := &command.Dispatcher{Store: store}
	server := ws.NewServer(tables, authSvc, dispatcher)
	server.Presence = snapCache

	if err := resumeTables(store, tables, server, snapCache); err != nil {
		return err
	}

	mux := http.NewServeMux()
	server.Mount(mux)
	mux.HandleFunc("/tables", createTableHandler(store, tables, server, snapCache, authSvc))
	mux.HandleFunc("/tables/join", joinTableHandler(tables, authSvc))

	logrus.WithField("addr", cfg.ListenAddr).Info("settlersd listening")
	return http.ListenAndServe(cfg.ListenAddr, mux)
}

func openStore(cfg config.Config) (database.Store, error) {
	if cfg.DatabaseURL != "" {
		logrus.Info("using postgres store")
		return database.NewPostgresStore(context.Background(), cfg.DatabaseURL)
	}
	logrus.WithField("path", cfg.SQLitePath).Info("using sqlite store")
	return database.NewSQLiteStore(cfg.SQLitePath)
}

// wireTable attaches transport broadcast and persistence hooks to a table.
func wireTable(t *table.Table, store database.Store, server *ws.Server, snapCache *cache.Cache) {
	t.BroadcastFn = server.Broadcast
	t.OnUpdate = func(t *table.Table, a engine.Action) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := json.Marshal(a)
		if err != nil {
			logrus.WithError(err).Error("marshal action")
			return
		}
		// Apply already appended the action, so its index is len-1.
		idx := len(t.Game.Log) - 1
		if err := store.AppendAction(ctx, t.ID, idx, payload); err != nil {
			logrus.WithError(err).Error("persist action")
		}
		data, err := t.Snapshot()
		if err != nil {
			logrus.WithError(err).Error("snapshot")
			return
		}
		if err := store.SaveSnapshot(ctx, t.ID, data); err != nil {
			logrus.WithError(err).Error("persist snapshot")
		}
		if err := snapCache.SetSnapshot(ctx, t.ID, data); err != nil {
			logrus.WithError(err).Warn("cache snapshot")
		}
		rec := recordOf(t)
		if err := store.SaveTable(ctx, rec); err != nil {
			logrus.WithError(err).Error("persist table record")
		}
	}
}

func recordOf(t *table.Table) models.TableRecord {
	rec := models.TableRecord{
		ID:         t.ID,
		Name:       t.Name,
		NumPlayers: t.Game.NumPlayers,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		GameOver:   t.Game.Phase == engine.PhaseGameOver,
	}
	for _, s := range t.Seats {
		rec.Nicknames = append(rec.Nicknames, s.Nickname)
	}
	if t.Game.Winner != engine.NoPlayer {
		rec.Winner = t.Nickname(t.Game.Winner)
	}
	return rec
}

// resumeTables restores every persisted table into the live registry.
func resumeTables(store database.Store, tables *table.Manager, server *ws.Server, snapCache *cache.Cache) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	for _, rec := range recs {
		// The cache usually has the freshest snapshot; fall back to the store.
		data, err := snapCache.GetSnapshot(ctx, rec.ID)
		if err != nil || data == nil {
			data, err = store.LoadSnapshot(ctx, rec.ID)
		}
		if err != nil {
			logrus.WithError(err).WithField("table", rec.ID).Warn("no snapshot, skipping")
			continue
		}
		t, err := table.RestoreTable(data)
		if err != nil {
			logrus.WithError(err).WithField("table", rec.ID).Error("restore failed")
			continue
		}
		rollForward(ctx, t, store)
		wireTable(t, store, server, snapCache)
		tables.Add(t)
		logrus.WithFields(logrus.Fields{"table": t.ID, "name": t.Name, "logLen": len(t.Game.Log)}).Info("table resumed")
	}
	return nil
}

type tableListing struct {
	models.TableRecord
	LiveOperator string `json:"liveOperator,omitempty"`
}

func listTables(w http.ResponseWriter, r *http.Request, store database.Store, snapCache *cache.Cache) {
	recs, err := store.ListTables(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	listings := make([]tableListing, 0, len(recs))
	for _, rec := range recs {
		op, _ := snapCache.Present(r.Context(), rec.ID)
		listings = append(listings, tableListing{TableRecord: rec, LiveOperator: op})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// rollForward applies any persisted actions newer than the snapshot, so a
// crash between an action append and its snapshot save loses nothing.
func rollForward(ctx context.Context, t *table.Table, store database.Store) {
	rows, err := store.LoadActions(ctx, t.ID)
	if err != nil {
		logrus.WithError(err).WithField("table", t.ID).Warn("no action log to roll forward")
		return
	}
	for _, row := range rows {
		if row.Index < len(t.Game.Log) {
			continue
		}
		var a engine.Action
		if err := json.Unmarshal(row.Payload, &a); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"table": t.ID, "idx": row.Index}).Error("bad persisted action")
			return
		}
		if _, err := t.Apply(a); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"table": t.ID, "idx": row.Index}).Error("roll-forward rejected")
			return
		}
	}
}

type createTableRequest struct {
	Name      string   `json:"name"`
	Nicknames []string `json:"nicknames"`
	Operator  string   `json:"operator"`
	Passcode  string   `json:"passcode"`
}

type createTableResponse struct {
	TableID        string `json:"tableId"`
	OperatorToken  string `json:"operatorToken"`
	SpectatorToken string `json:"spectatorToken"`
}

func createTableHandler(store database.Store, tables *table.Manager, server *ws.Server, snapCache *cache.Cache, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			listTables(w, r, store, snapCache)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
			return
		}
		var req createTableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		t, err := table.New(req.Name, req.Nicknames, engine.ClassicLayout())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opID, _ := uuid.NewRandom()
		t.Operator = models.Operator{ID: opID, Name: req.Operator, CreatedAt: time.Now()}
		if req.Passcode != "" {
			hash, err := auth.HashPasscode(req.Passcode)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			t.Operator.PasscodeHash = hash
		}
		wireTable(t, store, server, snapCache)
		tables.Add(t)

		if err := store.SaveTable(r.Context(), recordOf(t)); err != nil {
			logrus.WithError(err).Error("persist new table")
		}
		if data, err := t.Snapshot(); err == nil {
			if err := store.SaveSnapshot(r.Context(), t.ID, data); err != nil {
				logrus.WithError(err).Error("persist initial snapshot")
			}
		}

		opTok, err := authSvc.IssueToken(t.ID, auth.RoleOperator)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		specTok, err := authSvc.IssueToken(t.ID, auth.RoleSpectator)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createTableResponse{
			TableID:        t.ID.String(),
			OperatorToken:  opTok,
			SpectatorToken: specTok,
		})
		logrus.WithFields(logrus.Fields{"table": t.ID, "name": t.Name}).Info("table created")
	}
}

type joinTableRequest struct {
	TableID  string `json:"tableId"`
	Passcode string `json:"passcode"`
	Role     string `json:"role"`
}

// joinTableHandler issues a fresh token for an existing table. The operator
// role always requires the table passcode; spectators need it only when the
// table was created with one.
func joinTableHandler(tables *table.Manager, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req joinTableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := uuid.Parse(req.TableID)
		if err != nil {
			http.Error(w, "bad table id", http.StatusBadRequest)
			return
		}
		t, err := tables.Resolve(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		role := auth.RoleSpectator
		if req.Role == string(auth.RoleOperator) {
			role = auth.RoleOperator
		}
		hash := t.Operator.PasscodeHash
		needPasscode := role == auth.RoleOperator || hash != ""
		if needPasscode && (hash == "" || !auth.CheckPasscode(hash, req.Passcode)) {
			http.Error(w, "wrong passcode", http.StatusForbidden)
			return
		}
		tok, err := authSvc.IssueToken(t.ID, role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": tok, "role": string(role)})
	}
}
