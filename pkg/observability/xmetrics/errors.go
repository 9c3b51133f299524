package xmetrics

import "errors"

// ErrInstrument 表示 NewOTelObserver 创建 OTel 仪表（counter 或 histogram）失败。
var ErrInstrument = errors.New("xmetrics: create instrument failed")
