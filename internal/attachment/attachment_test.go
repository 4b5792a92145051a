package attachment

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	objstore "research-admin/internal/shared/minio"
)

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
	stats   []string
}

func (f *fakeObjects) Stat(_ context.Context, bucket, key string) (objstore.ObjectInfo, error) {
	f.stats = append(f.stats, bucket+"/"+key)
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return objstore.ObjectInfo{}, objstore.ErrNoSuchKey
	}
	return objstore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: f.types[bucket+"/"+key]}, nil
}

func (f *fakeObjects) Download(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, objstore.ErrNoSuchKey
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestResolve_LocalFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(img, []byte("pngdata"), 0o644))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	r := NewResolver(nil)
	a, err := r.Resolve(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "shot.png", a.Name)
	assert.Equal(t, int64(7), a.Size)
	assert.Equal(t, "image/png", a.ContentType)

	rc, err := a.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "pngdata", string(body))

	_, err = r.Resolve(context.Background(), txt)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = r.Resolve(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestResolve_ObjectStore(t *testing.T) {
	objs := &fakeObjects{
		objects: map[string][]byte{"shots/a/b.jpg": []byte("jpeg"), "shots/raw.bin": []byte("??")},
		types:   map[string]string{"shots/a/b.jpg": "application/octet-stream"},
	}
	r := NewResolver(objs)

	a, err := r.Resolve(context.Background(), "s3://shots/a/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", a.Name)
	assert.Equal(t, "image/jpeg", a.ContentType)
	assert.Equal(t, int64(4), a.Size)

	rc, err := a.Open(context.Background())
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(body))

	_, err = r.Resolve(context.Background(), "s3://shots/raw.bin")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = r.Resolve(context.Background(), "s3://shots/none.png")
	assert.ErrorIs(t, err, objstore.ErrNoSuchKey)

	_, err = r.Resolve(context.Background(), "s3://shots/")
	assert.Error(t, err)

	_, err = NewResolver(nil).Resolve(context.Background(), "s3://shots/a/b.jpg")
	assert.ErrorIs(t, err, ErrNoObjectStore)
}

func TestSplitBySize(t *testing.T) {
	small := FromBytes("a.png", make([]byte, 100))
	exact := FromBytes("b.png", make([]byte, DefaultMaxImageBytes))
	big := FromBytes("c.png", make([]byte, DefaultMaxImageBytes+1))

	kept, over := SplitBySize([]Attachment{small, big, exact}, 0)
	require.Len(t, kept, 2)
	assert.Equal(t, "a.png", kept[0].Name)
	assert.Equal(t, "b.png", kept[1].Name)
	require.Len(t, over, 1)
	assert.Equal(t, "c.png", over[0].Name)
}
