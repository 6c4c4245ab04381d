package engine

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"os"
	"time"
)

// identity is the one-line JSON answer served per transport connection.
// It lets peers and the status tooling confirm which cluster and node
// they reached without any further protocol.
type identity struct {
	Cluster string `json:"cluster"`
	Node    string `json:"node"`
	Pid     int    `json:"pid"`
}

func (n *Node) serveTransport() {
	defer n.wg.Done()
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("WARN: transport accept failed: %v", err)
			continue
		}
		go n.answerIdentity(conn)
	}
}

func (n *Node) answerIdentity(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	answer := identity{
		Cluster: n.settings.ClusterName(),
		Node:    n.settings.NodeName(),
		Pid:     os.Getpid(),
	}
	if err := json.NewEncoder(conn).Encode(answer); err != nil {
		log.Printf("WARN: failed to answer identity request: %v", err)
	}
}
