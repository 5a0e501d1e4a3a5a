package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ospanel/internal/config"
	"ospanel/internal/handlers/common"
	"ospanel/internal/handlers/imports"
	"ospanel/internal/handlers/orders"
	"ospanel/internal/handlers/reports"
	"ospanel/internal/store"
	"ospanel/internal/websocket"
)

func main() {
	cfgPath := flag.String("config", "ospanel.yaml", "YAML config path")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("DB open failed:", err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		log.Fatal("DB migration failed:", err)
	}

	hub := websocket.NewHub()

	ordersH := &orders.Handler{Store: st, Hub: hub}
	importsH := &imports.Handler{Store: st, Hub: hub, Defaults: cfg.Policy()}
	reportsH := &reports.Handler{Store: st}

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(hub, w, r)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		// Export sets its own content type.
		if path == "orders/export" && r.Method == "GET" {
			ordersH.Export(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		switch {
		// Orders
		case path == "orders" && r.Method == "GET":
			ordersH.List(w, r)
		case path == "orders" && r.Method == "POST":
			ordersH.Create(w, r)
		case parts[0] == "orders" && len(parts) == 2 && r.Method == "GET":
			ordersH.Get(w, r, parts[1])
		case parts[0] == "orders" && len(parts) == 2 && r.Method == "PUT":
			ordersH.Update(w, r, parts[1])
		case parts[0] == "orders" && len(parts) == 2 && r.Method == "DELETE":
			ordersH.Delete(w, r, parts[1])

		// Import
		case path == "import" && r.Method == "POST":
			importsH.Upload(w, r)
		case path == "import/preview" && r.Method == "POST":
			importsH.Preview(w, r)
		case path == "orders/clear" && r.Method == "POST":
			importsH.Clear(w, r)

		// Settings
		case path == "settings" && r.Method == "GET":
			n, err := st.Count()
			if err != nil {
				common.Err(w, err.Error(), 500)
				return
			}
			common.JSON(w, map[string]interface{}{
				"orders":      n,
				"db_path":     cfg.DBPath,
				"import_mode": cfg.Import.Mode,
			})

		// Reports
		case path == "dashboard" && r.Method == "GET":
			reportsH.Dashboard(w, r)
		case path == "reports/period" && r.Method == "GET":
			reportsH.ByPeriod(w, r)
		case path == "reports/performance" && r.Method == "GET":
			reportsH.Performance(w, r)

		default:
			http.Error(w, `{"error":"not found"}`, 404)
		}
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("ospanel server starting on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, logging(mux)))
}

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
