package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/SanatSharma/auction-demo/auction"
	"github.com/SanatSharma/auction-demo/ledger"
	"github.com/SanatSharma/auction-demo/store"
)

// Server accepts one JSON request per connection and answers with a single
// JSON response. Transport is tcp by default; vsock is available for
// deployments where the daemon runs inside a VM guest.
type Server struct {
	transport string
	port      uint32
	engine    *auction.Engine
	ledger    *ledger.Ledger
}

func NewServer(transport string, port uint32, engine *auction.Engine, l *ledger.Ledger) *Server {
	return &Server{
		transport: transport,
		port:      port,
		engine:    engine,
		ledger:    l,
	}
}

func (s *Server) listen() (net.Listener, error) {
	switch s.transport {
	case "tcp":
		return net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	case "vsock":
		return vsock.Listen(s.port, nil)
	default:
		return nil, fmt.Errorf("unknown transport %q (want tcp or vsock)", s.transport)
	}
}

func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to create %s listener: %w", s.transport, err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: auction server listening on %s port %d", s.transport, s.port)

	maxWorkers, err := getRequiredEnvInt("AUCTIOND_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response := s.handleRequest(buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	dataDir := getEnvString("AUCTIOND_DATA_DIR", "auctiond-data")
	transport := getEnvString("AUCTIOND_TRANSPORT", "tcp")

	port, err := getRequiredEnvInt("AUCTIOND_PORT")
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	st, err := store.NewDirStore(dataDir)
	if err != nil {
		log.Fatalf("ERROR: Failed to open auction store: %v", err)
	}
	log.Printf("INFO: Auction store opened at %s", dataDir)

	l := ledger.NewLedger()
	engine, err := auction.NewEngine(l, ledger.SystemClock{}, st)
	if err != nil {
		log.Fatalf("ERROR: Failed to initialize auction engine: %v", err)
	}
	log.Printf("INFO: Auction engine initialized")

	server := NewServer(transport, uint32(port), engine, l)
	log.Fatal(server.Start())
}
