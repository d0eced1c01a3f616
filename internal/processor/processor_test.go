package processor

import (
	"context"
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
	"github.com/aliskhannn/image-filter/internal/pixel"
	"github.com/aliskhannn/image-filter/internal/storage/file"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func writePNG(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(4, 3, c), path))

	return path
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source, want string
	}{
		{"/pics/cat.png", "cat_processed.png"},
		{"dog.JPG", "dog_processed.JPG"},
		{"/a/b/archive.tar.jpeg", "archive.tar_processed.jpeg"},
		{"noext", "noext_processed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.source, DefaultSuffix), tt.source)
	}
	assert.Equal(t, "cat-sepia.png", OutputName("cat.png", "-sepia"))
}

func TestProcess_WritesFilteredImage(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writePNG(t, in, "warm.png", color.NRGBA{R: 200, G: 100, B: 30, A: 255})

	p := New(file.NewStorage(out))
	res := p.Process(context.Background(), Unit{Index: 3, Source: src, Filter: filter.Grayscale})

	require.Equal(t, model.StageSucceeded, res.Stage, res.Error)
	assert.Equal(t, 3, res.Index)
	assert.Equal(t, filepath.Join(out, "warm_processed.png"), res.Output)
	assert.Equal(t, model.KindNone, res.Kind)

	img, err := imaging.Open(res.Output)
	require.NoError(t, err)
	// (200+100+30)/3 = 110
	assert.Equal(t, color.NRGBA{R: 110, G: 110, B: 110, A: 255}, color.NRGBAModel.Convert(img.At(1, 1)))
}

func TestProcess_Sepia(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writePNG(t, in, "white.png", color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	res := New(file.NewStorage(out)).Process(context.Background(), Unit{Source: src, Filter: filter.Sepia})
	require.True(t, res.Succeeded(), res.Error)

	img, err := imaging.Open(res.Output)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 238, A: 255}, color.NRGBAModel.Convert(img.At(0, 0)))
}

func TestProcess_MissingSourceIsDecodeError(t *testing.T) {
	res := New(file.NewStorage(t.TempDir())).Process(context.Background(), Unit{
		Source: filepath.Join(t.TempDir(), "nope.png"),
	})

	assert.Equal(t, model.StageFailed, res.Stage)
	assert.Equal(t, model.StageDecoding, res.FailedAt)
	assert.Equal(t, model.KindDecode, res.Kind)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Output)
}

func TestProcess_DestinationExists(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writePNG(t, in, "a.png", color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(out, "a_processed.png"), []byte("keep"), 0o644))

	p := New(file.NewStorage(out))

	res := p.Process(context.Background(), Unit{Source: src})
	assert.Equal(t, model.KindDestinationExists, res.Kind)
	assert.Equal(t, model.StagePersisting, res.FailedAt)

	kept, err := os.ReadFile(filepath.Join(out, "a_processed.png"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))

	res = p.Process(context.Background(), Unit{Source: src, Overwrite: true})
	assert.True(t, res.Succeeded(), res.Error)
}

type stubCodec struct {
	buf       *pixel.Buffer
	encodeErr error
}

func (s stubCodec) Decode(string) (*pixel.Buffer, imaging.Format, error) {
	return s.buf, imaging.PNG, nil
}

func (s stubCodec) Encode(w io.Writer, _ *pixel.Buffer, _ imaging.Format) error {
	if s.encodeErr != nil {
		return s.encodeErr
	}
	_, err := w.Write([]byte("encoded"))
	return err
}

type panickingCodec struct{}

func (panickingCodec) Decode(string) (*pixel.Buffer, imaging.Format, error) {
	panic("corrupt huffman table")
}

func (panickingCodec) Encode(io.Writer, *pixel.Buffer, imaging.Format) error { return nil }

func TestProcess_RecoversCodecPanic(t *testing.T) {
	res := New(file.NewStorage(t.TempDir()), WithCodec(panickingCodec{})).Process(context.Background(), Unit{Index: 4, Source: "x.png"})

	assert.Equal(t, 4, res.Index)
	assert.Equal(t, model.StageFailed, res.Stage)
	assert.Equal(t, model.StageDecoding, res.FailedAt)
	assert.Equal(t, model.KindIO, res.Kind)
	assert.Contains(t, res.Error, "corrupt huffman table")
}

func TestProcess_InvalidFormat(t *testing.T) {
	buf, err := pixel.New(1, 1, pixel.FormatRGBA32)
	require.NoError(t, err)

	out := t.TempDir()
	res := New(file.NewStorage(out), WithCodec(stubCodec{buf: buf})).Process(context.Background(), Unit{Source: "x.png"})

	assert.Equal(t, model.KindInvalidFormat, res.Kind)
	assert.Equal(t, model.StageTransforming, res.FailedAt)
}

func TestProcess_EncodeFailureLeavesNoFile(t *testing.T) {
	buf, err := pixel.New(1, 1, pixel.FormatBGRA32)
	require.NoError(t, err)

	out := t.TempDir()
	c := stubCodec{buf: buf, encodeErr: errors.Join(model.ErrEncode, errors.New("png: short write"))}
	res := New(file.NewStorage(out), WithCodec(c)).Process(context.Background(), Unit{Source: "x.png"})

	assert.Equal(t, model.KindEncode, res.Kind)
	assert.Equal(t, model.StagePersisting, res.FailedAt)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcess_CustomSuffix(t *testing.T) {
	buf, err := pixel.New(1, 1, pixel.FormatBGRA32)
	require.NoError(t, err)

	out := t.TempDir()
	res := New(file.NewStorage(out), WithCodec(stubCodec{buf: buf}), WithSuffix("_sepia")).
		Process(context.Background(), Unit{Source: "/in/x.png", Destination: "run1"})

	require.True(t, res.Succeeded(), res.Error)
	assert.Equal(t, filepath.Join(out, "run1", "x_sepia.png"), res.Output)
}
