package rules

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnreadable is returned when a rule file can't be opened or read.
var ErrUnreadable = errors.New("rule file is not present or readable")

// ReadFile reads the recognized settings of one rule file. Values are taken
// verbatim from after the first '='. Unknown keys and lines without '=' are
// dropped; if a key repeats, its first value wins.
func ReadFile(name string) (RawFields, error) {
	f, err := os.Open(name)
	if err != nil {
		return RawFields{}, errors.Wrapf(ErrUnreadable, "%s: %v", name, err)
	}
	defer f.Close()

	raw, err := Read(f)
	if err != nil {
		return RawFields{}, errors.Wrapf(ErrUnreadable, "%s: %v", name, err)
	}
	return raw, nil
}

// Read is ReadFile for an already opened rule file.
func Read(r io.Reader) (RawFields, error) {
	raw := RawFields{}

	// Lines have no length limit, a long comment must not lose the rule.
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		raw.add(strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
		if err == io.EOF {
			return raw, nil
		}
	}
}

func (raw RawFields) add(line string) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return
	}

	key := line[:eq]
	if !IsRecognized(key) {
		return
	}
	if _, dup := raw[key]; dup {
		return
	}
	raw[key] = line[eq+1:]
}
