package yaxi

import (
	"fmt"
)

// SetupInfo is everything the server granted at connection setup: the
// resource id range NewId draws from, the request size limit, and the
// screen descriptors.
type SetupInfo struct {
	ProtocolMajorVersion     uint16
	ProtocolMinorVersion     uint16
	ReleaseNumber            uint32
	ResourceIdBase           uint32
	ResourceIdMask           uint32
	MotionBufferSize         uint32
	MaximumRequestLength     uint16
	ImageByteOrder           byte
	BitmapFormatBitOrder     byte
	BitmapFormatScanlineUnit byte
	BitmapFormatScanlinePad  byte
	MinKeycode               byte
	MaxKeycode               byte
	Vendor                   string
	PixmapFormats            []PixmapFormat
	Roots                    []ScreenInfo
}

type PixmapFormat struct {
	Depth        byte
	BitsPerPixel byte
	ScanlinePad  byte
}

type ScreenInfo struct {
	Root                Id
	DefaultColormap     uint32
	WhitePixel          uint32
	BlackPixel          uint32
	CurrentInputMasks   uint32
	WidthInPixels       uint16
	HeightInPixels      uint16
	WidthInMillimeters  uint16
	HeightInMillimeters uint16
	MinInstalledMaps    uint16
	MaxInstalledMaps    uint16
	RootVisual          uint32
	BackingStores       byte
	SaveUnders          bool
	RootDepth           byte
	AllowedDepths       []DepthInfo
}

type DepthInfo struct {
	Depth   byte
	Visuals []VisualInfo
}

type VisualInfo struct {
	VisualId        uint32
	Class           byte
	BitsPerRgbValue byte
	ColormapEntries uint16
	RedMask         uint32
	GreenMask       uint32
	BlueMask        uint32
}

// read parses the setup success block, i.e. everything following the 8-byte
// response header. Returns the number of bytes consumed.
func (s *SetupInfo) read(buf []byte) (int, error) {
	if len(buf) < 32 {
		return 0, fmt.Errorf("connection setup block too short: %d bytes", len(buf))
	}

	s.ReleaseNumber = Get32(buf[0:])
	s.ResourceIdBase = Get32(buf[4:])
	s.ResourceIdMask = Get32(buf[8:])
	s.MotionBufferSize = Get32(buf[12:])
	vendorLen := int(Get16(buf[16:]))
	s.MaximumRequestLength = Get16(buf[18:])
	rootsLen := int(buf[20])
	formatsLen := int(buf[21])
	s.ImageByteOrder = buf[22]
	s.BitmapFormatBitOrder = buf[23]
	s.BitmapFormatScanlineUnit = buf[24]
	s.BitmapFormatScanlinePad = buf[25]
	s.MinKeycode = buf[26]
	s.MaxKeycode = buf[27]

	b := 32
	if len(buf) < b+pad(vendorLen)+8*formatsLen {
		return 0, fmt.Errorf("connection setup block truncated")
	}
	s.Vendor = string(buf[b : b+vendorLen])
	b += pad(vendorLen)

	s.PixmapFormats = make([]PixmapFormat, formatsLen)
	for i := 0; i < formatsLen; i++ {
		s.PixmapFormats[i] = PixmapFormat{
			Depth:        buf[b],
			BitsPerPixel: buf[b+1],
			ScanlinePad:  buf[b+2],
		}
		b += 8
	}

	s.Roots = make([]ScreenInfo, rootsLen)
	for i := 0; i < rootsLen; i++ {
		n, err := s.Roots[i].read(buf[b:])
		if err != nil {
			return 0, err
		}
		b += n
	}

	return b, nil
}

func (v *ScreenInfo) read(buf []byte) (int, error) {
	if len(buf) < 40 {
		return 0, fmt.Errorf("screen descriptor truncated")
	}

	v.Root = Id(Get32(buf[0:]))
	v.DefaultColormap = Get32(buf[4:])
	v.WhitePixel = Get32(buf[8:])
	v.BlackPixel = Get32(buf[12:])
	v.CurrentInputMasks = Get32(buf[16:])
	v.WidthInPixels = Get16(buf[20:])
	v.HeightInPixels = Get16(buf[22:])
	v.WidthInMillimeters = Get16(buf[24:])
	v.HeightInMillimeters = Get16(buf[26:])
	v.MinInstalledMaps = Get16(buf[28:])
	v.MaxInstalledMaps = Get16(buf[30:])
	v.RootVisual = Get32(buf[32:])
	v.BackingStores = buf[36]
	v.SaveUnders = buf[37] == 1
	v.RootDepth = buf[38]
	depthsLen := int(buf[39])

	b := 40
	v.AllowedDepths = make([]DepthInfo, depthsLen)
	for i := 0; i < depthsLen; i++ {
		n, err := v.AllowedDepths[i].read(buf[b:])
		if err != nil {
			return 0, err
		}
		b += n
	}

	return b, nil
}

func (v *DepthInfo) read(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("depth descriptor truncated")
	}

	v.Depth = buf[0]
	visualsLen := int(Get16(buf[2:]))

	b := 8
	if len(buf) < b+24*visualsLen {
		return 0, fmt.Errorf("depth descriptor truncated")
	}
	v.Visuals = make([]VisualInfo, visualsLen)
	for i := 0; i < visualsLen; i++ {
		v.Visuals[i] = VisualInfo{
			VisualId:        Get32(buf[b:]),
			Class:           buf[b+4],
			BitsPerRgbValue: buf[b+5],
			ColormapEntries: Get16(buf[b+6:]),
			RedMask:         Get32(buf[b+8:]),
			GreenMask:       Get32(buf[b+12:]),
			BlueMask:        Get32(buf[b+16:]),
		}
		b += 24
	}

	return b, nil
}
