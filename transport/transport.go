// Package transport provides a TCP-based implementation of the
// madastar.Agent contract: peers dial each other directly, frame every
// line as "<type>@<payload>", and a background pinger prunes peers
// that stop acknowledging. It also exposes an HTTP introspection
// endpoint over the peer list and agent identity, for operators
// watching a running fleet from outside the cluster.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/basinwire/planner/madastar"
)

// DefaultPingInterval matches the reference cadence for peer liveness
// checks.
const DefaultPingInterval = 2 * time.Second

// DefaultPingWait is how long a ping grants a peer to ack before it's
// declared dead.
const DefaultPingWait = 100 * time.Millisecond

const (
	msgTypePing    = "P"
	msgTypeMessage = "M"
	msgTypeKill    = "K"
)

func frame(msgType, payload string) string {
	return msgType + "@" + payload + "\n"
}

// Option configures a TCPAgent.
type Option func(*TCPAgent)

// WithLogger attaches a logger tracing peer churn and message flow.
// Nil (the default) disables logging.
func WithLogger(l *log.Logger) Option {
	return func(a *TCPAgent) { a.log = l }
}

// WithPingInterval overrides the liveness-check cadence.
func WithPingInterval(d time.Duration) Option {
	return func(a *TCPAgent) { a.pingInterval = d }
}

// WithIntrospectionAddr starts a gorilla/mux HTTP server on addr
// exposing GET /id and GET /peers for external observers.
func WithIntrospectionAddr(addr string) Option {
	return func(a *TCPAgent) { a.introspectionAddr = addr }
}

// TCPAgent is a peer in a gossip-style mesh: every peer knows the
// endpoints of every other peer it has heard from, directly, with no
// central broker.
type TCPAgent struct {
	ID uuid.UUID
	ep string

	mu    sync.Mutex
	peers []string
	inbox []string

	pingInterval      time.Duration
	introspectionAddr string
	log               *log.Logger

	listener net.Listener
	httpSrv  *http.Server
	stopPing chan struct{}
}

var _ madastar.Agent = (*TCPAgent)(nil)

// NewTCPAgent creates an agent bound to ep (e.g. "127.0.0.1:8787").
// The agent always knows about itself.
func NewTCPAgent(ep string, opts ...Option) *TCPAgent {
	a := &TCPAgent{
		ID:           uuid.New(),
		ep:           ep,
		peers:        []string{ep},
		pingInterval: DefaultPingInterval,
		stopPing:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddPeer registers ep as a known neighbour.
func (a *TCPAgent) AddPeer(ep string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ep == a.ep {
		return
	}
	for _, p := range a.peers {
		if p == ep {
			return
		}
	}
	a.peers = append(a.peers, ep)
}

func (a *TCPAgent) peerList() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.peers))
	copy(out, a.peers)
	return out
}

// Broadcast sends msg to every known peer but itself, waiting for
// each peer's one-line ack before moving to the next. A peer that
// fails to dial is skipped, not retried — the ping loop will evict it
// once it's been unreachable long enough.
func (a *TCPAgent) Broadcast(msg string) {
	for _, peer := range a.peerList() {
		if peer == a.ep {
			continue
		}
		a.send(peer, frame(msgTypeMessage, msg))
	}
}

func (a *TCPAgent) send(peer, wire string) bool {
	conn, err := net.DialTimeout("tcp", peer, DefaultPingWait)
	if err != nil {
		if a.log != nil {
			a.log.Debug("transport: dial failed", "peer", peer, "error", err)
		}
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(wire)); err != nil {
		return false
	}
	conn.SetReadDeadline(time.Now().Add(DefaultPingWait))
	_, err = bufio.NewReader(conn).ReadString('\n')
	return err == nil
}

// Retrieve drains and returns every message received since the last
// call.
func (a *TCPAgent) Retrieve() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.inbox) == 0 {
		return nil
	}
	out := a.inbox
	a.inbox = nil
	return out
}

// Activate binds the listener and starts the listen and ping
// goroutines (plus the introspection HTTP server, if configured). The
// returned func sends this agent a kill frame and blocks until both
// goroutines have exited.
func (a *TCPAgent) Activate() (func(), error) {
	ln, err := net.Listen("tcp", a.ep)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", a.ep, err)
	}
	a.listener = ln

	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		a.listenLoop()
	}()

	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		a.pingLoop()
	}()

	if a.introspectionAddr != "" {
		a.httpSrv = &http.Server{Addr: a.introspectionAddr, Handler: a.introspectionRouter()}
		go a.httpSrv.ListenAndServe()
	}

	return func() {
		a.send(a.ep, frame(msgTypeKill, "0"))
		<-listenDone
		close(a.stopPing)
		<-pingDone
		if a.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			a.httpSrv.Shutdown(ctx)
		}
	}, nil
}

func (a *TCPAgent) listenLoop() {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			return
		}
		kill := a.handleConn(conn)
		if kill {
			a.listener.Close()
			return
		}
	}
}

func (a *TCPAgent) handleConn(conn net.Conn) (kill bool) {
	defer conn.Close()
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.TrimRight(line, "\n")
	conn.Write([]byte("0\n"))

	parts := strings.SplitN(line, "@", 2)
	if len(parts) != 2 {
		return false
	}

	switch parts[0] {
	case msgTypePing:
		a.mu.Lock()
		for _, peer := range strings.Split(parts[1], ",") {
			found := false
			for _, p := range a.peers {
				if p == peer {
					found = true
					break
				}
			}
			if !found && peer != "" {
				a.peers = append(a.peers, peer)
			}
		}
		a.mu.Unlock()
	case msgTypeMessage:
		a.mu.Lock()
		a.inbox = append(a.inbox, parts[1])
		a.mu.Unlock()
	case msgTypeKill:
		a.mu.Lock()
		a.peers = nil
		a.mu.Unlock()
		return true
	}
	return false
}

// pingLoop periodically advertises the known peer list to every peer
// and drops any peer that doesn't ack in time. Exits once the peer
// set is empty or stopPing is closed.
func (a *TCPAgent) pingLoop() {
	for {
		select {
		case <-a.stopPing:
			return
		default:
		}

		peers := a.peerList()
		joined := strings.Join(peers, ",")
		wire := frame(msgTypePing, joined)

		var dead []string
		for _, peer := range peers {
			if peer == a.ep {
				continue
			}
			if !a.send(peer, wire) {
				dead = append(dead, peer)
			}
		}

		if len(dead) > 0 {
			a.mu.Lock()
			a.peers = filterOut(a.peers, dead)
			empty := len(a.peers) == 0
			a.mu.Unlock()
			if empty {
				return
			}
		}

		select {
		case <-a.stopPing:
			return
		case <-time.After(a.pingInterval):
		}
	}
}

func filterOut(peers, dead []string) []string {
	var out []string
	for _, p := range peers {
		keep := true
		for _, d := range dead {
			if p == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	return out
}

func (a *TCPAgent) introspectionRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/id", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": a.ID.String(), "endpoint": a.ep})
	}).Methods(http.MethodGet)
	r.HandleFunc("/peers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(a.peerList())
	}).Methods(http.MethodGet)
	return r
}
