package fat

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/brinklabs/fatfs/errors"
	"github.com/brinklabs/fatfs/internal/ioutil"
)

const (
	fsInfoLeadSig  = 0x41615252
	fsInfoStrucSig = 0x61417272
	fsInfoTrailSig = 0xAA550000

	// fsInfoUnknown is the sentinel FAT32 reserves for "this hint hasn't
	// been computed"; a stale or absent FSInfo sector reads back as this
	// rather than zero.
	fsInfoUnknown = 0xFFFFFFFF

	// fsInfoSectorNumber is the sector, counted from the start of the
	// volume, Format always stamps FSInfoSector as in the BPB. Real FAT32
	// volumes can relocate it, but every volume this library formats uses
	// the conventional placement.
	fsInfoSectorNumber = 1
)

type rawFSInfo struct {
	LeadSig   uint32
	Reserved1 [480]byte
	StrucSig  uint32
	FreeCount uint32
	NextFree  uint32
	Reserved2 [12]byte
	TrailSig  uint32
}

func fsInfoOffset(geom Geometry) int64 {
	return int64(fsInfoSectorNumber) * int64(geom.BytesPerSector)
}

func readFSInfo(store ioutil.BackingStore, offset int64) (rawFSInfo, bool, error) {
	buf := make([]byte, 512)
	if _, err := store.ReadAt(buf, offset); err != nil {
		return rawFSInfo{}, false, errors.ErrIOFailed.WrapError(err)
	}
	var info rawFSInfo
	if err := binary.Read(ioutil.NewSliceReader(buf), binary.LittleEndian, &info); err != nil {
		return rawFSInfo{}, false, errors.ErrIOFailed.WrapError(err)
	}
	valid := info.LeadSig == fsInfoLeadSig && info.StrucSig == fsInfoStrucSig && info.TrailSig == fsInfoTrailSig
	return info, valid, nil
}

func writeFSInfo(store ioutil.BackingStore, offset int64, freeCount, nextFree uint32) error {
	info := rawFSInfo{
		LeadSig:   fsInfoLeadSig,
		StrucSig:  fsInfoStrucSig,
		FreeCount: freeCount,
		NextFree:  nextFree,
		TrailSig:  fsInfoTrailSig,
	}
	buf := make([]byte, 512)
	if err := binary.Write(bytewriter.New(buf), binary.LittleEndian, &info); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	if _, err := store.WriteAt(buf, offset); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}
