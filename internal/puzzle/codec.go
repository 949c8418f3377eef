package puzzle

import (
	"fmt"
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// 文档大小上限
const (
	MaxDocumentSize = 1 << 20
	MaxDataSize     = 1 << 20

	// compressAbove 超过此大小的谜题数据尝试 zstd 压缩
	compressAbove = 512
)

// 谜题文档字段号
const (
	fieldPuzzleID         protowire.Number = 1
	fieldPuzzleType       protowire.Number = 2
	fieldPuzzleMime       protowire.Number = 3
	fieldPuzzleData       protowire.Number = 4
	fieldPuzzleInserter   protowire.Number = 5
	fieldPuzzleIndex      protowire.Number = 6
	fieldPuzzleCreated    protowire.Number = 7
	fieldPuzzleValidUntil protowire.Number = 8
	fieldPuzzleCodec      protowire.Number = 9
)

// 介绍文档字段号
const (
	fieldIntroPuzzleID protowire.Number = 1
	fieldIntroSolution protowire.Number = 2
	fieldIntroSolver   protowire.Number = 3
	fieldIntroNickname protowire.Number = 4
	fieldIntroCreated  protowire.Number = 5
)

// 数据编码方式
const (
	dataRaw  = 0
	dataZstd = 1
)

// Introduction 解答者上传的介绍文档
type Introduction struct {
	PuzzleID       types.PuzzleID
	Solution       string
	Solver         types.IdentityID
	SolverNickname string
	CreatedAt      time.Time
}

// Codec 谜题与介绍文档的编解码器
//
// 文档采用 protobuf 线格式，未知字段被忽略以便向前兼容。
// 并发安全。
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec 创建编解码器
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("puzzle: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(MaxDataSize),
		zstd.WithDecoderConcurrency(0),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("puzzle: zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close 释放压缩器资源
func (c *Codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}

// ============================================================================
//                              谜题文档
// ============================================================================

// EncodePuzzle 编码谜题文档；解答字段不会被编码
func (c *Codec) EncodePuzzle(p *types.Puzzle) ([]byte, error) {
	if len(p.Data) > MaxDataSize {
		return nil, ErrTooLarge
	}

	data, mode := p.Data, uint64(dataRaw)
	if len(data) > compressAbove {
		if z := c.enc.EncodeAll(data, nil); len(z) < len(data) {
			data, mode = z, dataZstd
		}
	}

	var b []byte
	b = appendString(b, fieldPuzzleID, string(p.ID))
	b = appendString(b, fieldPuzzleType, string(p.Type))
	b = appendString(b, fieldPuzzleMime, p.MimeType)
	b = protowire.AppendTag(b, fieldPuzzleData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	b = appendString(b, fieldPuzzleInserter, string(p.Inserter))
	b = protowire.AppendTag(b, fieldPuzzleIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Index))
	b = appendTime(b, fieldPuzzleCreated, p.CreatedAt)
	b = appendTime(b, fieldPuzzleValidUntil, p.ValidUntil)
	if mode != dataRaw {
		b = protowire.AppendTag(b, fieldPuzzleCodec, protowire.VarintType)
		b = protowire.AppendVarint(b, mode)
	}
	return b, nil
}

// DecodePuzzle 解码并校验谜题文档
func (c *Codec) DecodePuzzle(b []byte) (*types.Puzzle, error) {
	if len(b) > MaxDocumentSize {
		return nil, ErrTooLarge
	}

	p := &types.Puzzle{}
	var (
		data  []byte
		mode  uint64
		index uint64
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fieldPuzzleID && typ == protowire.BytesType:
			p.ID = types.PuzzleID(v)
		case num == fieldPuzzleType && typ == protowire.BytesType:
			p.Type = types.PuzzleType(v)
		case num == fieldPuzzleMime && typ == protowire.BytesType:
			p.MimeType = string(v)
		case num == fieldPuzzleData && typ == protowire.BytesType:
			data = v
		case num == fieldPuzzleInserter && typ == protowire.BytesType:
			p.Inserter = types.IdentityID(v)
		case num == fieldPuzzleIndex && typ == protowire.VarintType:
			index = u
		case num == fieldPuzzleCreated && typ == protowire.VarintType:
			p.CreatedAt = decodeTime(u)
		case num == fieldPuzzleValidUntil && typ == protowire.VarintType:
			p.ValidUntil = decodeTime(u)
		case num == fieldPuzzleCodec && typ == protowire.VarintType:
			mode = u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch mode {
	case dataRaw:
		p.Data = append([]byte(nil), data...)
	case dataZstd:
		raw, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrMalformed, err)
		}
		if len(raw) > MaxDataSize {
			return nil, ErrTooLarge
		}
		p.Data = raw
	default:
		return nil, fmt.Errorf("%w: unknown data encoding %d", ErrMalformed, mode)
	}

	if index > uint64(MaxIndex) {
		return nil, fmt.Errorf("%w: index %d", ErrMalformed, index)
	}
	p.Index = int(index)

	switch {
	case p.ID == "":
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	case p.Type == "":
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	case p.Inserter == "":
		return nil, fmt.Errorf("%w: inserter", ErrMissingField)
	case p.CreatedAt.IsZero():
		return nil, fmt.Errorf("%w: created", ErrMissingField)
	}
	if !ValidID(p.ID) {
		return nil, fmt.Errorf("%w: id %q", ErrMalformed, p.ID)
	}
	if err := p.Inserter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// Parse 实现 introduction.DocumentCodec
func (c *Codec) Parse(payload []byte) (*types.Puzzle, error) {
	return c.DecodePuzzle(payload)
}

// ============================================================================
//                              介绍文档
// ============================================================================

// EncodeIntroduction 编码介绍文档
func (c *Codec) EncodeIntroduction(in *Introduction) []byte {
	var b []byte
	b = appendString(b, fieldIntroPuzzleID, string(in.PuzzleID))
	b = appendString(b, fieldIntroSolution, in.Solution)
	b = appendString(b, fieldIntroSolver, string(in.Solver))
	b = appendString(b, fieldIntroNickname, in.SolverNickname)
	b = appendTime(b, fieldIntroCreated, in.CreatedAt)
	return b
}

// DecodeIntroduction 解码介绍文档
func (c *Codec) DecodeIntroduction(b []byte) (*Introduction, error) {
	if len(b) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	in := &Introduction{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fieldIntroPuzzleID && typ == protowire.BytesType:
			in.PuzzleID = types.PuzzleID(v)
		case num == fieldIntroSolution && typ == protowire.BytesType:
			in.Solution = string(v)
		case num == fieldIntroSolver && typ == protowire.BytesType:
			in.Solver = types.IdentityID(v)
		case num == fieldIntroNickname && typ == protowire.BytesType:
			in.SolverNickname = string(v)
		case num == fieldIntroCreated && typ == protowire.VarintType:
			in.CreatedAt = decodeTime(u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if in.PuzzleID == "" || in.Solution == "" || in.Solver == "" {
		return nil, fmt.Errorf("%w: introduction", ErrMissingField)
	}
	return in, nil
}

// ============================================================================
//                              线格式辅助
// ============================================================================

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendTime 以毫秒 zigzag 编码时间，零值不编码
func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(t.UnixMilli()))
}

func decodeTime(u uint64) time.Time {
	return time.UnixMilli(protowire.DecodeZigZag(u)).UTC()
}

// walk 逐字段遍历文档；bytes 字段通过 v 传递，varint 字段通过 u 传递，
// 其他线类型被跳过
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			v []byte
			u uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			u, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, typ, v, u); err != nil {
			return err
		}
	}
	return nil
}
