package xconf

import "errors"

var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示读取配置失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrDecodeFailed 表示配置反序列化失败。
	ErrDecodeFailed = errors.New("xconf: failed to decode config")

	// ErrNotFileBacked 表示配置不是从文件加载的，无法重载或监视。
	ErrNotFileBacked = errors.New("xconf: config is not backed by a file")
)
