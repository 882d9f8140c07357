// Package tga reads and writes Truevision TGA images (grayscale, RGB and
// RGBA, raw or run-length encoded) and registers the format with the
// standard image package.
package tga

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// ErrFormat is returned for files that are not a supported TGA image.
var ErrFormat = errors.New("tga: unsupported format")

// Image type codes.
const (
	typeRGB     = 2
	typeGray    = 3
	typeRLERGB  = 10
	typeRLEGray = 11
)

// Image descriptor bits.
const (
	descRightToLeft = 0x10
	descTopToBottom = 0x20
)

const maxPacket = 128

var footer = []byte("TRUEVISION-XFILE.\x00")

type header struct {
	IDLength        uint8
	ColorMapType    uint8
	DataTypeCode    uint8
	ColorMapOrigin  uint16
	ColorMapLength  uint16
	ColorMapDepth   uint8
	XOrigin         uint16
	YOrigin         uint16
	Width           uint16
	Height          uint16
	BitsPerPixel    uint8
	ImageDescriptor uint8
}

func init() {
	for _, magic := range []string{"?\x00\x02", "?\x00\x03", "?\x00\x0a", "?\x00\x0b"} {
		image.RegisterFormat("tga", magic, Decode, DecodeConfig)
	}
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	if h.ColorMapType != 0 {
		return h, fmt.Errorf("%w: color-mapped images", ErrFormat)
	}
	switch h.DataTypeCode {
	case typeRGB, typeGray, typeRLERGB, typeRLEGray:
	default:
		return h, fmt.Errorf("%w: image type %d", ErrFormat, h.DataTypeCode)
	}
	switch h.BitsPerPixel {
	case 8, 24, 32:
	default:
		return h, fmt.Errorf("%w: %d bits per pixel", ErrFormat, h.BitsPerPixel)
	}
	if h.Width == 0 || h.Height == 0 {
		return h, fmt.Errorf("%w: empty image %dx%d", ErrFormat, h.Width, h.Height)
	}
	return h, nil
}

// DecodeConfig returns the dimensions and color model of a TGA image
// without decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	model := color.NRGBAModel
	if h.BitsPerPixel == 8 {
		model = color.GrayModel
	}
	return image.Config{ColorModel: model, Width: int(h.Width), Height: int(h.Height)}, nil
}

// Decode reads a TGA image. Grayscale files decode to *image.Gray, all
// others to *image.NRGBA. The result always has its origin at the top left.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(int(h.IDLength)); err != nil {
		return nil, fmt.Errorf("skipping image id: %w", err)
	}

	bpp := int(h.BitsPerPixel) / 8
	w, ht := int(h.Width), int(h.Height)
	data := make([]byte, w*ht*bpp)
	switch h.DataTypeCode {
	case typeRGB, typeGray:
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("reading pixel data: %w", err)
		}
	default:
		if err := readRLE(br, data, bpp); err != nil {
			return nil, fmt.Errorf("reading rle data: %w", err)
		}
	}

	if h.ImageDescriptor&descTopToBottom == 0 {
		flipRows(data, w*bpp, ht)
	}
	if h.ImageDescriptor&descRightToLeft != 0 {
		flipColumns(data, w, ht, bpp)
	}

	if bpp == 1 {
		img := image.NewGray(image.Rect(0, 0, w, ht))
		copy(img.Pix, data)
		return img, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	for i, j := 0, 0; i < len(data); i, j = i+bpp, j+4 {
		img.Pix[j+0] = data[i+2]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i+0]
		if bpp == 4 {
			img.Pix[j+3] = data[i+3]
		} else {
			img.Pix[j+3] = 0xff
		}
	}
	return img, nil
}

func readRLE(r io.ByteReader, data []byte, bpp int) error {
	pixel := make([]byte, bpp)
	for n := 0; n < len(data); {
		chunk, err := r.ReadByte()
		if err != nil {
			return err
		}
		if chunk < maxPacket {
			count := (int(chunk) + 1) * bpp
			if n+count > len(data) {
				return fmt.Errorf("%w: too many pixels", ErrFormat)
			}
			for i := range count {
				if data[n+i], err = r.ReadByte(); err != nil {
					return err
				}
			}
			n += count
			continue
		}
		count := int(chunk) - 127
		if n+count*bpp > len(data) {
			return fmt.Errorf("%w: too many pixels", ErrFormat)
		}
		for i := range pixel {
			if pixel[i], err = r.ReadByte(); err != nil {
				return err
			}
		}
		for range count {
			n += copy(data[n:], pixel)
		}
	}
	return nil
}

func flipRows(data []byte, stride, height int) {
	line := make([]byte, stride)
	for j := range height / 2 {
		a := data[j*stride : (j+1)*stride]
		b := data[(height-1-j)*stride : (height-j)*stride]
		copy(line, a)
		copy(a, b)
		copy(b, line)
	}
}

func flipColumns(data []byte, width, height, bpp int) {
	stride := width * bpp
	for y := range height {
		row := data[y*stride : (y+1)*stride]
		for i := range width / 2 {
			a := row[i*bpp : (i+1)*bpp]
			b := row[(width-1-i)*bpp : (width-i)*bpp]
			for k := range bpp {
				a[k], b[k] = b[k], a[k]
			}
		}
	}
}

// Options controls how Encode writes an image.
type Options struct {
	// RLE enables run-length encoding of the pixel data.
	RLE bool
	// BottomUp stores rows bottom to top, the layout most TGA readers
	// expect by default.
	BottomUp bool
}

// Encode writes m as a TGA image. Gray images are written with one byte
// per pixel, opaque images with three and everything else with four.
// A nil opts writes raw, top-down data.
func Encode(w io.Writer, m image.Image, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > 0xffff || b.Dy() > 0xffff {
		return fmt.Errorf("%w: cannot encode %dx%d image", ErrFormat, b.Dx(), b.Dy())
	}

	bpp := 4
	switch img := m.(type) {
	case *image.Gray:
		bpp = 1
	default:
		if opaque(img) {
			bpp = 3
		}
	}

	data := make([]byte, 0, b.Dx()*b.Dy()*bpp)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if bpp == 1 {
				data = append(data, color.GrayModel.Convert(m.At(x, y)).(color.Gray).Y)
				continue
			}
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			data = append(data, c.B, c.G, c.R)
			if bpp == 4 {
				data = append(data, c.A)
			}
		}
	}
	if opts.BottomUp {
		flipRows(data, b.Dx()*bpp, b.Dy())
	}

	h := header{
		Width:        uint16(b.Dx()),
		Height:       uint16(b.Dy()),
		BitsPerPixel: uint8(bpp * 8),
	}
	switch {
	case bpp == 1 && opts.RLE:
		h.DataTypeCode = typeRLEGray
	case bpp == 1:
		h.DataTypeCode = typeGray
	case opts.RLE:
		h.DataTypeCode = typeRLERGB
	default:
		h.DataTypeCode = typeRGB
	}
	if !opts.BottomUp {
		h.ImageDescriptor = descTopToBottom
	}
	if bpp == 4 {
		h.ImageDescriptor |= 8
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if opts.RLE {
		writeRLE(bw, data, bpp)
	} else if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("writing pixel data: %w", err)
	}
	// Developer and extension area offsets, then the version 2 footer.
	if _, err := bw.Write(make([]byte, 8)); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if _, err := bw.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	return bw.Flush()
}

type opaquer interface {
	Opaque() bool
}

func opaque(m image.Image) bool {
	if o, ok := m.(opaquer); ok {
		return o.Opaque()
	}
	return false
}

// writeRLE emits alternating raw and run packets. A run packet is used
// for two or more identical consecutive pixels.
func writeRLE(w *bufio.Writer, data []byte, bpp int) {
	n := len(data) / bpp
	same := func(i, j int) bool {
		for k := range bpp {
			if data[i*bpp+k] != data[j*bpp+k] {
				return false
			}
		}
		return true
	}
	for cur := 0; cur < n; {
		run := 1
		for cur+run < n && run < maxPacket && same(cur, cur+run) {
			run++
		}
		if run > 1 {
			w.WriteByte(byte(run + 127))
			w.Write(data[cur*bpp : (cur+1)*bpp])
			cur += run
			continue
		}
		raw := 1
		for cur+raw < n && raw < maxPacket && !(cur+raw+1 < n && same(cur+raw, cur+raw+1)) {
			raw++
		}
		w.WriteByte(byte(raw - 1))
		w.Write(data[cur*bpp : (cur+raw)*bpp])
		cur += raw
	}
}
