package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/draw-and-guess/internal/protocol"
)

// Format 帧编码格式
type Format int

const (
	FormatJSON   Format = iota // 文本帧，JSON 信封
	FormatBinary               // 二进制帧，protobuf wire 信封
)

// ParseFormat 解析连接参数中的格式名，未知值回退为 JSON
func ParseFormat(name string) Format {
	if name == "binary" || name == "protobuf" {
		return FormatBinary
	}
	return FormatJSON
}

func (f Format) String() string {
	if f == FormatBinary {
		return "binary"
	}
	return "json"
}

// 二进制信封字段号
const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
	fieldAck     protowire.Number = 3
)

var (
	ErrMissingType  = errors.New("codec: message type is required")
	ErrEmptyPayload = errors.New("codec: empty payload")
)

// NewMessage 创建一个新消息，payload 使用 JSON 编码
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := marshalJSON(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// NewAck 创建请求应答
func NewAck(ack uint64, payload protocol.AckPayload) *protocol.Message {
	msg := MustNewMessage(protocol.MsgAck, payload)
	msg.Ack = ack
	return msg
}

// Encode 按连接格式编码消息
func Encode(m *protocol.Message, format Format) ([]byte, error) {
	if m.Type == "" {
		return nil, ErrMissingType
	}
	if format == FormatJSON {
		return marshalJSON(m)
	}

	b := make([]byte, 0, len(m.Type)+len(m.Payload)+16)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(m.Type))
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	if m.Ack != 0 {
		b = protowire.AppendTag(b, fieldAck, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Ack)
	}
	return b, nil
}

// Decode 按连接格式解码消息
// 注意: 处理完毕后可调用 PutMessage 归还对象到池
func Decode(data []byte, format Format) (*protocol.Message, error) {
	msg := GetMessage()
	var err error
	if format == FormatJSON {
		err = json.Unmarshal(data, msg)
	} else {
		err = decodeBinary(data, msg)
	}
	if err == nil && msg.Type == "" {
		err = ErrMissingType
	}
	if err != nil {
		PutMessage(msg)
		return nil, err
	}
	return msg, nil
}

func decodeBinary(data []byte, msg *protocol.Message) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			var v string
			v, n = protowire.ConsumeString(data)
			msg.Type = protocol.MessageType(v)
		case num == fieldPayload && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(data)
			msg.Payload = append([]byte(nil), v...) // 复制 payload 避免引用读缓冲
		case num == fieldAck && typ == protowire.VarintType:
			msg.Ack, n = protowire.ConsumeVarint(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
	}
	return nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	if len(msg.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}

func marshalJSON(v any) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return append([]byte(nil), bytes.TrimSuffix(buf.Bytes(), []byte("\n"))...), nil
}
