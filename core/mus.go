package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Timestamps are stored as Unix
// microseconds; vectors as raw float32 with a varint length prefix.
var (
	IDMUS           = idMUS{}
	DocumentMUS     = documentMUS{}
	IngestionJobMUS = ingestionJobMUS{}
	IndexEntryMUS   = indexEntryMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += ord.String.Marshal(v.OriginalName, bs[n:])
	n += ord.String.Marshal(v.SessionTag, bs[n:])
	n += varint.Int64.Marshal(v.SizeBytes, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += marshalTime(v.UploadedAt, bs[n:])
	return n
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.OriginalName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.SessionTag, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.SizeBytes, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.SourceURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.UploadedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Filename)
	size += ord.String.Size(v.OriginalName)
	size += ord.String.Size(v.SessionTag)
	size += varint.Int64.Size(v.SizeBytes)
	size += ord.String.Size(v.SourceURL)
	size += sizeTime(v.UploadedAt)
	return size
}

type ingestionJobMUS struct{}

func (s ingestionJobMUS) Marshal(v IngestionJob, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += varint.Uint64.Marshal(v.Generation, bs[n:])
	n += varint.Int.Marshal(int(v.State), bs[n:])
	n += ord.String.Marshal(v.Detail, bs[n:])
	n += varint.Int.Marshal(v.PageCount, bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += marshalTime(v.EnqueuedAt, bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.FinishedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (s ingestionJobMUS) Unmarshal(bs []byte) (v IngestionJob, n int, err error) {
	var n1 int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Generation, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var state int
	if state, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	v.State = JobState(state)
	n += n1
	if v.Detail, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.PageCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.EnqueuedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.FinishedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (s ingestionJobMUS) Size(v IngestionJob) (size int) {
	size = ord.String.Size(v.Id)
	size += IDMUS.Size(v.DocumentId)
	size += varint.Uint64.Size(v.Generation)
	size += varint.Int.Size(int(v.State))
	size += ord.String.Size(v.Detail)
	size += varint.Int.Size(v.PageCount)
	size += varint.Int.Size(v.ChunkCount)
	size += sizeTime(v.EnqueuedAt)
	size += sizeTime(v.StartedAt)
	size += sizeTime(v.FinishedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type indexEntryMUS struct{}

func (s indexEntryMUS) Marshal(v IndexEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ChunkId, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += varint.Uint64.Marshal(v.Generation, bs[n:])
	n += varint.Int.Marshal(v.Sequence, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += ord.String.Marshal(v.DocumentName, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += varint.Int.Marshal(v.PageStart, bs[n:])
	n += varint.Int.Marshal(v.PageEnd, bs[n:])
	return n
}

func (s indexEntryMUS) Unmarshal(bs []byte) (v IndexEntry, n int, err error) {
	var n1 int
	if v.ChunkId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Generation, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Sequence, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var length int
	if length, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if length < 0 {
		err = fmt.Errorf("negative vector length %d", length)
		return
	}
	if length > 0 {
		v.Vector = make([]float32, length)
		for i := 0; i < length; i++ {
			if v.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
	}
	if v.DocumentName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.SourceURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.PageStart, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.PageEnd, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (s indexEntryMUS) Size(v IndexEntry) (size int) {
	size = IDMUS.Size(v.ChunkId)
	size += IDMUS.Size(v.DocumentId)
	size += varint.Uint64.Size(v.Generation)
	size += varint.Int.Size(v.Sequence)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += raw.Float32.Size(f)
	}
	size += ord.String.Size(v.DocumentName)
	size += ord.String.Size(v.SourceURL)
	size += varint.Int.Size(v.PageStart)
	size += varint.Int.Size(v.PageEnd)
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
