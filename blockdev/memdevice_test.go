package blockdev_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ParkGyuhwan/buffercache/blockdev"
)

func sectorOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, blockdev.SectorSize)
}

var _ = Describe("MemDevice", func() {
	var dev *blockdev.MemDevice

	BeforeEach(func() {
		dev = blockdev.NewMemDevice(64)
	})

	It("should report capacity", func() {
		Expect(dev.NumSectors()).To(Equal(uint64(64)))
	})

	It("should read zeros from untouched sectors", func() {
		buf := sectorOf(0xFF)

		err := dev.ReadSector(3, buf)

		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal(make([]byte, blockdev.SectorSize)))
	})

	It("should read and write in single unit", func() {
		Expect(dev.WriteSector(1, sectorOf(0xAA))).To(Succeed())
		Expect(dev.WriteSector(2, sectorOf(0xBB))).To(Succeed())

		buf := make([]byte, blockdev.SectorSize)
		Expect(dev.ReadSector(1, buf)).To(Succeed())
		Expect(buf).To(Equal(sectorOf(0xAA)))

		Expect(dev.ReadSector(2, buf)).To(Succeed())
		Expect(buf).To(Equal(sectorOf(0xBB)))
	})

	It("should read and write across units", func() {
		Expect(dev.WriteSector(7, sectorOf(1))).To(Succeed())
		Expect(dev.WriteSector(8, sectorOf(2))).To(Succeed())

		buf := make([]byte, blockdev.SectorSize)
		Expect(dev.ReadSector(7, buf)).To(Succeed())
		Expect(buf).To(Equal(sectorOf(1)))

		Expect(dev.ReadSector(8, buf)).To(Succeed())
		Expect(buf).To(Equal(sectorOf(2)))
	})

	It("should not alias the caller buffer", func() {
		src := sectorOf(5)
		Expect(dev.WriteSector(0, src)).To(Succeed())
		src[0] = 9

		buf := make([]byte, blockdev.SectorSize)
		Expect(dev.ReadSector(0, buf)).To(Succeed())
		Expect(buf[0]).To(Equal(byte(5)))
	})

	It("should return error if accessing over the capacity", func() {
		buf := make([]byte, blockdev.SectorSize)

		Expect(dev.WriteSector(64, buf)).
			To(MatchError(blockdev.ErrSectorOutOfRange))
		Expect(dev.ReadSector(64, buf)).
			To(MatchError(blockdev.ErrSectorOutOfRange))
	})

	It("should reject buffers that are not one sector", func() {
		Expect(dev.WriteSector(0, make([]byte, 10))).
			To(MatchError(blockdev.ErrBufferSize))
		Expect(dev.ReadSector(0, make([]byte, 1024))).
			To(MatchError(blockdev.ErrBufferSize))
	})
})
