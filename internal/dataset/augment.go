package dataset

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// NumVariants is the number of distinct augmentation transforms. The
// variant applied to a derived sample is selected by sequence number, so
// the same plan always yields the same files.
const NumVariants = 5

// AugmentFile reads the source image, applies the transform selected by
// variant, and writes the result to destPath. The transform set is a fixed
// collaborator of the balancing step; the plan only decides how many copies
// to derive and from which originals.
func AugmentFile(srcPath, destPath string, variant int) error {
	src := gocv.IMRead(srcPath, gocv.IMReadColor)
	if src.Empty() {
		return fmt.Errorf("cannot decode image %s", srcPath)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	switch variant % NumVariants {
	case 0:
		gocv.Flip(src, &dst, 1) // horizontal
	case 1:
		gocv.Flip(src, &dst, 0) // vertical
	case 2:
		gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	case 3:
		src.ConvertToWithParams(&dst, gocv.MatTypeCV8UC3, 1.15, 12) // brighten
	case 4:
		gocv.GaussianBlur(src, &dst, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)
	}

	if ok := gocv.IMWrite(destPath, dst); !ok {
		return fmt.Errorf("failed to write %s", destPath)
	}
	return nil
}
