package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"research-admin/internal/attachment"
)

// Form multipart/form-data 请求体
//
// 字段与文件按添加顺序写入；第一次出错后后续调用全部忽略，错误在发送时返回。
type Form struct {
	buf    bytes.Buffer
	w      *multipart.Writer
	err    error
	closed bool
	fields map[string][]string
	files  map[string][]string
}

// NewForm 创建空表单
func NewForm() *Form {
	f := &Form{fields: map[string][]string{}, files: map[string][]string{}}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// Set 写入文本字段
func (f *Form) Set(name, value string) *Form {
	if f.err != nil {
		return f
	}
	if err := f.w.WriteField(name, value); err != nil {
		f.err = fmt.Errorf("form field %s: %w", name, err)
		return f
	}
	f.fields[name] = append(f.fields[name], value)
	return f
}

// SetNonEmpty 仅在去空白后非空时写入
func (f *Form) SetNonEmpty(name, value string) *Form {
	if strings.TrimSpace(value) == "" {
		return f
	}
	return f.Set(name, strings.TrimSpace(value))
}

// AddFile 追加一个文件分片，同名字段可重复（screenshots）
func (f *Form) AddFile(ctx context.Context, field string, a attachment.Attachment) *Form {
	if f.err != nil {
		return f
	}
	rc, err := a.Open(ctx)
	if err != nil {
		f.err = err
		return f
	}
	defer rc.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(a.Name)))
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = fmt.Errorf("form file %s: %w", a.Name, err)
		return f
	}
	if _, err := io.Copy(part, rc); err != nil {
		f.err = fmt.Errorf("form file %s: %w", a.Name, err)
		return f
	}
	f.files[field] = append(f.files[field], a.Name)
	return f
}

// AddFiles 依次追加
func (f *Form) AddFiles(ctx context.Context, field string, list []attachment.Attachment) *Form {
	for _, a := range list {
		f.AddFile(ctx, field, a)
	}
	return f
}

// Values 已写入的文本字段
func (f *Form) Values() map[string][]string {
	return f.fields
}

// Files 已写入的文件名（按字段）
func (f *Form) Files() map[string][]string {
	return f.files
}

// Err 构造过程中的第一个错误
func (f *Form) Err() error {
	return f.err
}

// encode 结束表单，返回请求体与带 boundary 的 Content-Type
func (f *Form) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if !f.closed {
		if err := f.w.Close(); err != nil {
			return nil, "", err
		}
		f.closed = true
	}
	return bytes.NewReader(f.buf.Bytes()), f.w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
