// Package engine implements the client side of a UCI-like move-search
// protocol: spawning an analysis-engine subprocess, driving its line-based
// stdio, and awaiting search results. See §4.1 and §6.1.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/seekerror/logw"
)

// killGrace is how long Close waits for a quit'd engine to exit on its own
// before force-killing it (§4.1 quit: "does not await exit; the destructor
// force-kills if still alive").
const killGrace = 200 * time.Millisecond

// Session owns one spawned engine subprocess and speaks the line-based
// protocol of §6.1 over its stdio. Safe for concurrent Logs()/Close(), but
// command methods (SetOption/SetPosition/Go/Stop/WaitForBestMove) must not
// be interleaved by more than one caller. Session itself only serializes
// individual line writes (writeMu); it holds no lock across a whole
// command/response exchange. The Game Controller keeps searches from
// overlapping with its engineThinking flag (at most one search per game),
// not with a per-engine mutex.
type Session struct {
	path string

	writeMu sync.Mutex
	stdin   io.WriteCloser
	cmd     *exec.Cmd

	lines chan string // decoded stdout lines, closed on EOF
	log   *ringLog
}

// Spawn starts the engine binary at path with piped stdio and a working
// directory set to the binary's parent directory, mirroring
// engine/process.rs's BaseEngine::spawn.
func Spawn(ctx context.Context, path string) (*Session, error) {
	cmd := exec.Command(path)
	if dir := filepath.Dir(path); dir != "" {
		cmd.Dir = dir
	}
	configurePlatform(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, newError(ErrNoStdio, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newError(ErrNoStdio, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, newError(ErrNoStdio, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, newError(ErrSpawnFailed, err)
	}

	s := &Session{
		path:  path,
		stdin: stdin,
		cmd:   cmd,
		lines: make(chan string, 8192),
		log:   newRingLog(),
	}

	go s.readStdout(stdout)
	go s.readStderr(ctx, stderr)

	logw.Infof(ctx, "spawned engine %v (pid=%v)", path, cmd.Process.Pid)
	return s, nil
}

func (s *Session) readStdout(r io.Reader) {
	defer close(s.lines)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		s.log.append(DirRecv, line)
		s.lines <- line
	}
}

func (s *Session) readStderr(ctx context.Context, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		s.log.append(DirStderr, line)
		logw.Debugf(ctx, "engine stderr: %v", line)
	}
}

func (s *Session) send(ctx context.Context, line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.log.append(DirSent, line)
	logw.Debugf(ctx, ">> %v", line)

	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		return newError(ErrIO, err)
	}
	return nil
}

// waitForLine blocks until a line satisfying match arrives, ctx is
// cancelled, or the engine disconnects (stdout EOF).
func (s *Session) waitForLine(ctx context.Context, match func(string) bool) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", newError(ErrIO, ctx.Err())
		case line, ok := <-s.lines:
			if !ok {
				return "", newError(ErrEngineDisconnected, io.EOF)
			}
			logw.Debugf(ctx, "<< %v", line)
			if match(line) {
				return line, nil
			}
		}
	}
}

// Init performs the uci/isready handshake of §4.1.
func (s *Session) Init(ctx context.Context) error {
	if err := s.send(ctx, "uci"); err != nil {
		return err
	}
	if _, err := s.waitForLine(ctx, func(l string) bool { return strings.HasPrefix(l, "uciok") }); err != nil {
		return err
	}
	if err := s.send(ctx, "isready"); err != nil {
		return err
	}
	if _, err := s.waitForLine(ctx, func(l string) bool { return strings.HasPrefix(l, "readyok") }); err != nil {
		return err
	}
	return nil
}

// SetOption emits "setoption name <name> value <value>". No response is
// awaited (§4.1).
func (s *Session) SetOption(ctx context.Context, name, value string) error {
	return s.send(ctx, fmt.Sprintf("setoption name %s value %s", name, value))
}

// SetPosition emits "position fen <fen>[ moves <uci>...]".
func (s *Session) SetPosition(ctx context.Context, fen string, moves []string) error {
	if len(moves) == 0 {
		return s.send(ctx, fmt.Sprintf("position fen %s", fen))
	}
	return s.send(ctx, fmt.Sprintf("position fen %s moves %s", fen, strings.Join(moves, " ")))
}

// Go starts a search in the given mode.
func (s *Session) Go(ctx context.Context, mode GoMode) error {
	return s.send(ctx, mode.UCIString())
}

// Stop emits "stop".
func (s *Session) Stop(ctx context.Context) error {
	return s.send(ctx, "stop")
}

// WaitForBestMove reads lines until one parses as "bestmove <uci>[ ponder <uci>]"
// and returns the UCI move string.
func (s *Session) WaitForBestMove(ctx context.Context) (string, error) {
	line, err := s.waitForLine(ctx, func(l string) bool { return strings.HasPrefix(l, "bestmove ") })
	if err != nil {
		return "", err
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", newError(ErrEngineDisconnected, fmt.Errorf("malformed bestmove line: %q", line))
	}
	return fields[1], nil
}

// Quit emits "quit" without awaiting the process to exit.
func (s *Session) Quit(ctx context.Context) {
	_ = s.send(ctx, "quit")
}

// Close force-kills the child process if it has not already exited,
// satisfying I7 ("child processes are killed if they do not exit").
func (s *Session) Close() {
	if s.cmd.Process == nil {
		return
	}

	waited := make(chan struct{})
	go func() {
		_, _ = s.cmd.Process.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(killGrace):
		_ = s.cmd.Process.Kill()
		<-waited
	}
}

// Logs returns a snapshot of the bounded protocol log.
func (s *Session) Logs() []LogLine {
	return s.log.snapshot()
}

// Path returns the engine binary path this session was spawned from.
func (s *Session) Path() string {
	return s.path
}
