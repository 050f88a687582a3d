// Package streaming reassembles token-streamed network responses into
// ordered fragments and a final aggregate. Any loop that issues a streaming
// request consumes it through a Consumer.
package streaming

import (
	"encoding/json"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// Frame is the default structured payload: an incremental text fragment
// and/or an explicit completion marker.
type Frame struct {
	Token string `json:"token"`
	Done  bool   `json:"done"`
}

// FrameDecoder parses one payload into a text fragment and a completion
// flag. Providers with their own wire shape supply their own decoder.
type FrameDecoder func(payload []byte) (token string, done bool, err error)

// DecodeTokenFrame decodes the default {"token","done"} payload.
func DecodeTokenFrame(payload []byte) (string, bool, error) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return "", false, err
	}
	return frame.Token, frame.Done, nil
}

// Consumer is the transient per-request state of one streaming response:
// the unflushed byte remainder of a partial line plus the accumulating
// full-text result. Discard it when the request completes.
type Consumer struct {
	decode    FrameDecoder
	onToken   func(string)
	remainder []byte
	full      strings.Builder
	done      bool
}

// NewConsumer creates a consumer delivering fragments to onToken in arrival
// order. A nil decoder uses DecodeTokenFrame; a nil onToken discards
// fragments (the aggregate is still built).
func NewConsumer(decode FrameDecoder, onToken func(string)) *Consumer {
	if decode == nil {
		decode = DecodeTokenFrame
	}
	if onToken == nil {
		onToken = func(string) {}
	}
	return &Consumer{decode: decode, onToken: onToken}
}

// Feed appends newly arrived bytes to the carry-over buffer and processes
// every complete line; content after the last newline is retained for the
// next read, so payloads split across reads lose nothing. Returns true once
// a termination signal has been seen.
func (c *Consumer) Feed(p []byte) bool {
	if c.done {
		return true
	}
	c.remainder = append(c.remainder, p...)

	for {
		idx := -1
		for i, b := range c.remainder {
			if b == '\n' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return c.done
		}
		line := string(c.remainder[:idx])
		c.remainder = c.remainder[idx+1:]

		if c.processLine(line); c.done {
			return true
		}
	}
}

func (c *Consumer) processLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == doneSentinel {
		c.done = true
		return
	}

	token, done, err := c.decode([]byte(payload))
	if err != nil {
		// Malformed payloads are skipped; the stream continues.
		return
	}
	if token != "" {
		c.full.WriteString(token)
		c.onToken(token)
	}
	if done {
		c.done = true
	}
}

// Done reports whether a termination signal has been consumed.
func (c *Consumer) Done() bool {
	return c.done
}

// Text returns the aggregate text built so far.
func (c *Consumer) Text() string {
	return c.full.String()
}

// Consume drives Feed over r until a termination signal or end of stream.
// A stream that closes without a termination signal still yields whatever
// aggregate was built (graceful close, not an error).
func (c *Consumer) Consume(r io.Reader) (string, error) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if c.Feed(buf[:n]) {
				return c.Text(), nil
			}
		}
		if err == io.EOF {
			return c.Text(), nil
		}
		if err != nil {
			return c.Text(), err
		}
	}
}
