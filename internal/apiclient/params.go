package apiclient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// pathParam 按 OpenAPI simple 风格编码路径参数
func pathParam(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("path parameter %s is empty", name)
	}
	return runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
}

// idPath 拼接 prefix/{id}/suffix...
func idPath(prefix, id string, suffix ...string) (string, error) {
	p, err := pathParam("id", id)
	if err != nil {
		return "", err
	}
	parts := append([]string{strings.TrimSuffix(prefix, "/"), p}, suffix...)
	return strings.Join(parts, "/"), nil
}

// Params 查询参数构造器，空值不写入
type Params url.Values

// NewParams 创建空参数集
func NewParams() Params {
	return Params{}
}

// Set 设置非空字符串
func (p Params) Set(key, value string) Params {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(p, key)
		return p
	}
	p[key] = []string{value}
	return p
}

// SetInt 设置正整数
func (p Params) SetInt(key string, n int) Params {
	if n <= 0 {
		delete(p, key)
		return p
	}
	p[key] = []string{strconv.Itoa(n)}
	return p
}

// SetFlag true 时写入 1
func (p Params) SetFlag(key string, on bool) Params {
	if !on {
		delete(p, key)
		return p
	}
	p[key] = []string{"1"}
	return p
}

// Get 读取单值
func (p Params) Get(key string) string {
	return url.Values(p).Get(key)
}

// Values 转为 url.Values
func (p Params) Values() url.Values {
	return url.Values(p)
}

// Encode 排序后编码
func (p Params) Encode() string {
	return url.Values(p).Encode()
}
