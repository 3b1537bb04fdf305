package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/CrowderSoup/wekan-graphql/graph"
	"github.com/CrowderSoup/wekan-graphql/handlers"
	"github.com/CrowderSoup/wekan-graphql/wekan"
)

func main() {
	log := logrus.New()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	// Initialize the Wekan client and resolver layer
	client := wekan.NewClient(cfg.WekanHost, log)
	resolver := graph.NewResolver(client, log)
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		log.Fatalf("failed to build schema: %v", err)
	}

	// Setup router
	r := mux.NewRouter()
	authMiddleware := handlers.NewAuthMiddleware(log)
	r.Handle("/graphql", authMiddleware.Auth(handlers.NewGraphQLHandler(&schema)))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Wekan-User-Id"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Infof("GraphQL server listening on port %s", cfg.Port)
	log.Fatal(server.ListenAndServe())
}
