package xtwolayer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Codec 负责值在分布式存储中的序列化。
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSONCodec 使用 encoding/json 编解码，是默认的 Codec。
type JSONCodec[T any] struct{}

// Marshal 实现 Codec。
func (JSONCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 实现 Codec。
func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// GobCodec 使用 encoding/gob 编解码。只适用于所有实例都是 Go 程序的部署。
type GobCodec[T any] struct{}

// Marshal 实现 Codec。
func (GobCodec[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal 实现 Codec。
func (GobCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v)
	return v, err
}
