// File: client/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"go.uber.org/zap"
)

// read consumes relayed lines until the connection ends or its deadline
// fires. Deadline expiry is the normal way out.
func (g *Generator) read(conn net.Conn) error {
	br := bufio.NewReader(conn)
	for {
		line, err := br.ReadString('\n')
		if err == nil {
			g.check(line)
			continue
		}
		if line != "" {
			g.mismatched.Add(1)
			g.log.Warn("partial line at end of stream", zap.String("line", line))
		}
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil
		case errors.Is(err, io.EOF):
			return ErrClosed
		default:
			return fmt.Errorf("read: %w", err)
		}
	}
}

func (g *Generator) check(line string) {
	g.received.Add(1)
	if line != g.cfg.Message {
		g.mismatched.Add(1)
		g.log.Warn("received an incorrect message", zap.String("line", line))
	}
}
