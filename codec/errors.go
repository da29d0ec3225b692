package codec

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Kind 解码失败类别
type Kind string

const (
	KindKeyNotFound   Kind = "keyNotFound"
	KindValueNotFound Kind = "valueNotFound"
	KindTypeMismatch  Kind = "typeMismatch"
	KindDataCorrupted Kind = "dataCorrupted"
	KindInvalidTarget Kind = "invalidTarget"
	KindUnknown       Kind = "unknown"
)

// DecodeError 解码失败诊断信息（类别、文档内路径、原始文档）
type DecodeError struct {
	Kind     Kind
	Path     string
	Offset   int64
	Document string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("json decode failed: %s at %s: %v; document: %s", e.Kind, e.Path, e.Err, e.Document)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MissingError 必填键缺失（Null=true 表示键存在但值为 null）
type MissingError struct {
	Key  string
	Null bool
}

func (e *MissingError) Error() string {
	if e.Null {
		return "value not found for key " + e.Key
	}
	return "key not found: " + e.Key
}

// Validator 解码后校验（声明必填键等约束）
//
//	func (m *Payload) Validate() error {
//	    if m.MessageID == "" {
//	        return &codec.MissingError{Key: "messageId"}
//	    }
//	    return nil
//	}
type Validator interface {
	Validate() error
}

// classify 将底层错误归类为 DecodeError
func classify(err error, doc []byte) *DecodeError {
	de := &DecodeError{Kind: KindUnknown, Path: "$", Document: string(doc), Err: err}

	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		invalidErr *json.InvalidUnmarshalError
		missingErr *MissingError
	)
	switch {
	case errors.As(err, &missingErr):
		de.Kind = KindKeyNotFound
		if missingErr.Null {
			de.Kind = KindValueNotFound
		}
		de.Path = "$." + missingErr.Key
	case errors.As(err, &typeErr):
		de.Kind = KindTypeMismatch
		de.Offset = typeErr.Offset
		if typeErr.Field != "" {
			de.Path = "$." + typeErr.Field
		}
	case errors.As(err, &syntaxErr):
		de.Kind = KindDataCorrupted
		de.Offset = syntaxErr.Offset
	case errors.As(err, &invalidErr):
		de.Kind = KindInvalidTarget
	}
	return de
}
