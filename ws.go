package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WSConn abstracts write & close for testability
type WSConn interface {
	Read(ctx context.Context) (ClientToServer, error)
	Write(ctx context.Context, msg ServerToClient) error
	Close(status websocket.StatusCode, reason string) error
	SetReadLimit(n int64)
}

type nhooyrConn struct {
	c *websocket.Conn
}

func (n *nhooyrConn) Read(ctx context.Context) (ClientToServer, error) {
	var m ClientToServer
	if err := wsjson.Read(ctx, n.c, &m); err != nil {
		return m, err
	}
	return m, nil
}

func (n *nhooyrConn) Write(ctx context.Context, msg ServerToClient) error {
	return wsjson.Write(ctx, n.c, msg)
}

func (n *nhooyrConn) Close(status websocket.StatusCode, reason string) error {
	return n.c.Close(status, reason)
}

func (n *nhooyrConn) SetReadLimit(nbytes int64) {
	n.c.SetReadLimit(nbytes)
}

const writeTimeout = 5 * time.Second

func errorFrame(requestID, code, msg string) ServerToClient {
	return ServerToClient{Type: "error", RequestID: requestID, Error: &ErrObj{Code: code, Message: msg}, TS: time.Now().UTC()}
}

func ackFrame(requestID, topic string) ServerToClient {
	return ServerToClient{Type: "ack", RequestID: requestID, Topic: topic, Status: "ok", TS: time.Now().UTC()}
}

func (a *app) wsHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// In real-world, set Origin checks / subprotocols
	})
	if err != nil {
		log.Printf("accept err: %v", err)
		return
	}
	connID := uuid.NewString()
	conn := &nhooyrConn{c: c}
	conn.SetReadLimit(a.cfg.ReadLimitBytes)
	log.Printf("ws %s connected from %s", connID, r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go heartbeat(ctx, conn, a.cfg.HeartbeatInterval)

	// per-connection subscriptions, keyed by topic
	subs := map[string]*Subscriber{}

	for {
		in, err := conn.Read(ctx)
		if err != nil {
			// connection closed or error
			break
		}
		switch in.Type {
		case "ping":
			_ = conn.Write(ctx, ServerToClient{Type: "pong", RequestID: in.RequestID, TS: time.Now().UTC()})
		case "subscribe":
			if in.Topic == "" || in.ClientID == "" {
				_ = conn.Write(ctx, errorFrame(in.RequestID, "BAD_REQUEST", "topic and client_id required"))
				continue
			}
			topic, err := a.topics.GetTopic(in.Topic)
			if err != nil {
				_ = conn.Write(ctx, errorFrame(in.RequestID, "TOPIC_NOT_FOUND", "topic not found"))
				continue
			}
			sub := newSubscriber(in.ClientID, conn, a.cfg.SubscriberQueueSize)
			if old, ok := subs[topic.name]; ok {
				topic.detach(old)
				old.Close()
				delete(subs, topic.name)
			}
			if !topic.SubscribeWithReplay(sub, in.LastN) {
				_ = conn.Write(ctx, errorFrame(in.RequestID, "SLOW_CONSUMER", "replay overflow"))
				continue
			}
			subs[topic.name] = sub
			// ack goes out before the writer starts so queued events follow it
			_ = conn.Write(ctx, ackFrame(in.RequestID, topic.name))
			go subscriberWriteLoop(ctx, topic, sub)
		case "unsubscribe":
			if in.Topic == "" || in.ClientID == "" {
				_ = conn.Write(ctx, errorFrame(in.RequestID, "BAD_REQUEST", "topic and client_id required"))
				continue
			}
			// only this connection's own subscription can be removed
			if sub, ok := subs[in.Topic]; ok && sub.id == in.ClientID {
				if topic, err := a.topics.GetTopic(in.Topic); err == nil {
					topic.detach(sub)
				}
				sub.Close()
				delete(subs, in.Topic)
			}
			_ = conn.Write(ctx, ackFrame(in.RequestID, in.Topic))
		case "publish":
			if in.Topic == "" || in.Message == nil {
				_ = conn.Write(ctx, errorFrame(in.RequestID, "BAD_REQUEST", "topic and message required"))
				continue
			}
			if err := a.publish(in.Topic, *in.Message); err != nil {
				_ = conn.Write(ctx, errorFrame(in.RequestID, publishErrorCode(err), err.Error()))
				continue
			}
			_ = conn.Write(ctx, ackFrame(in.RequestID, in.Topic))
		default:
			_ = conn.Write(ctx, errorFrame(in.RequestID, "BAD_REQUEST", "unknown type"))
		}
	}

	// cleanup: unsubscribe all
	for name, sub := range subs {
		if topic, err := a.topics.GetTopic(name); err == nil {
			topic.detach(sub)
		}
		sub.Close()
	}
	log.Printf("ws %s disconnected", connID)
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func heartbeat(ctx context.Context, conn WSConn, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = conn.Write(ctx, ServerToClient{
				Type: "info",
				Msg:  "ping",
				TS:   time.Now().UTC(),
			})
		}
	}
}

// subscriberWriteLoop writes events from sub.send to the socket as
// ServerToClient{type:"event"} until the subscriber or the connection closes.
func subscriberWriteLoop(ctx context.Context, topic *Topic, sub *Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.closed:
			return
		case m := <-sub.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := sub.conn.Write(wctx, ServerToClient{
				Type:    "event",
				Topic:   topic.name,
				Message: &m,
				TS:      time.Now().UTC(),
			})
			cancel()
			if err != nil {
				topic.detach(sub)
				sub.Close()
				return
			}
		}
	}
}

// replay queues msgs without blocking. It reports false if the queue
// cannot hold them all.
func (s *Subscriber) replay(msgs []Message) bool {
	for _, m := range msgs {
		select {
		case s.send <- m:
		default:
			return false
		}
	}
	return true
}

// Close stops the subscriber's writer. The connection stays open since it
// may carry other subscriptions.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// CloseWithError reports code to the client and drops the whole connection.
func (s *Subscriber) CloseWithError(code, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = s.conn.Write(ctx, errorFrame("", code, reason))
	s.Close()
	_ = s.conn.Close(websocket.StatusPolicyViolation, reason)
}
