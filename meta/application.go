package meta

import (
	"fmt"

	"github.com/go-flac/flac/internal/bits"
)

// registeredApplications maps a registered application ID to a human
// readable description, for diagnostics only; unregistered IDs are still
// accepted since the encoder only ever round-trips blocks it is handed.
//
// ref: http://flac.sourceforge.net/id.html
var registeredApplications = map[ID]string{
	"ATCH": "FlacFile",
	"BSOL": "beSolo",
	"BUGS": "Bugs Player",
	"Cues": "GoldWave cue points",
	"Fica": "CUE Splitter",
	"Ftol": "flac-tools",
	"MOTB": "MOTB MetaCzar",
	"MPSE": "MP3 Stream Editor",
	"MuML": "MusicML: Music Metadata Language",
	"RIFF": "Sound Devices RIFF chunk storage",
	"SFFL": "Sound Font FLAC",
	"SONY": "Sony Creative Software",
	"SQEZ": "flacsqueeze",
	"TtWv": "TwistedWave",
	"UITS": "UITS Embedding tools",
	"aiff": "FLAC AIFF chunk storage",
	"imag": "flac-image application",
	"peem": "Parseable Embedded Extensible Metadata",
	"qfst": "QFLAC Studio",
	"riff": "FLAC RIFF chunk storage",
	"tune": "TagTuner",
	"xbat": "XBAT",
	"xmcd": "xmcd",
}

// ID is a 4-byte identifier of a registered application.
type ID string

func (id ID) String() string {
	if s, ok := registeredApplications[id]; ok {
		return s
	}
	return fmt.Sprintf("<unregistered ID: %q>", string(id))
}

// Application is used by third-party applications to store data within a
// FLAC stream. The only mandatory field is a 32-bit ID, granted to the
// application by the FLAC maintainers; the remainder of the block is
// defined by that application.
type Application struct {
	ID   ID
	Data []byte
}

// ParseApplication reads and parses an Application metadata block body of
// the given byte length.
func ParseApplication(br *bits.Reader, length int) (*Application, error) {
	var idBuf [4]byte
	if err := br.ReadFully(idBuf[:]); err != nil {
		return nil, err
	}
	app := &Application{ID: ID(idBuf[:])}
	app.Data = make([]byte, length-4)
	if err := br.ReadFully(app.Data); err != nil {
		return nil, err
	}
	return app, nil
}

// Encode writes an Application metadata block body.
func (app *Application) Encode(bw *bits.Writer) error {
	if err := bw.WriteFully([]byte(app.ID)); err != nil {
		return err
	}
	return bw.WriteFully(app.Data)
}
