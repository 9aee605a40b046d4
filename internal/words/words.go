// Package words loads and normalises the answer and valid-guess word lists.
//
// A list is either a JSON array of strings or plain text with one word per
// line. Sources are local paths or s3://bucket/key URLs.
package words

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const Length = 5

var (
	ErrInvalidWord = errors.New("invalid word")
	ErrNoS3Client  = errors.New("s3 source given but no s3 client configured")
)

var upper = cases.Upper(language.Und)

// Normalize trims and upper-cases a word. Stored words and guesses are
// compared in this form.
func Normalize(word string) string {
	return upper.String(strings.TrimSpace(word))
}

// Valid reports whether w is a normalised five letter word
func Valid(w string) bool {
	if utf8.RuneCountInString(w) != Length {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// Parse reads a JSON array or newline separated list, normalising every entry
// and dropping duplicates and blank lines. Any malformed word fails the whole
// list.
func Parse(data []byte) ([]string, error) {
	var raw []string
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("decode word list: %w", err)
		}
	} else {
		raw = strings.Split(string(trimmed), "\n")
	}

	list := lo.Uniq(lo.FilterMap(raw, func(w string, _ int) (string, bool) {
		w = Normalize(w)
		return w, w != ""
	}))
	for i, w := range list {
		if !Valid(w) {
			return nil, fmt.Errorf("%w: entry %d %q", ErrInvalidWord, i, w)
		}
	}
	return list, nil
}

// ObjectGetter is the subset of the S3 client used to read word lists
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader resolves word list sources
type Loader struct {
	S3 ObjectGetter
}

// Load reads and parses the list at source
func (l *Loader) Load(ctx context.Context, source string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if bucket, key, ok := parseS3URL(source); ok {
		data, err = l.fetchS3(ctx, bucket, key)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", source, err)
	}

	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", source, err)
	}
	return list, nil
}

func (l *Loader) fetchS3(ctx context.Context, bucket, key string) ([]byte, error) {
	if l.S3 == nil {
		return nil, ErrNoS3Client
	}
	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func parseS3URL(source string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(source, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
