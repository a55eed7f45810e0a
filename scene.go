package ledserver

// This file contains scenes, YAML documents listing the descriptors a strip
// should start with.  Each entry is a partial pixel applied over the current
// descriptor, optionally repeated with a stride
//
//	- index: 0
//	  repeat: 3
//	  colours: ["#ff0000", [0, 0, 255]]
//	  modifier: smooth
//	  duration: 2

import (
	"io"
	"os"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/TeamNorCal/ledserver/model"
)

// SceneEntry places one animation at index, and at every repeat pixels after
// it when repeat is greater than zero
type SceneEntry struct {
	Index            int `yaml:"index"`
	Repeat           int `yaml:"repeat,omitempty"`
	model.PixelPatch `yaml:",inline"`
}

// Scene is an ordered list of entries, later entries win
type Scene []SceneEntry

// ReadScene decodes a scene document
func ReadScene(r io.Reader) (scene Scene, err error) {
	scene = Scene{}
	if errGo := yaml.NewDecoder(r).Decode(&scene); errGo != nil && errGo != io.EOF {
		return nil, errors.Wrap(ErrInvalidDescriptor, errGo.Error())
	}
	return scene, nil
}

// LoadScene reads a scene from the named file
func LoadScene(fn string) (scene Scene, err error) {
	f, errGo := os.Open(fn)
	if errGo != nil {
		return nil, errors.Wrapf(errGo, "scene %s", fn)
	}
	defer f.Close()

	if scene, err = ReadScene(f); err != nil {
		return nil, errors.Wrapf(err, "scene %s", fn)
	}
	return scene, nil
}

// Apply validates every entry against state and then stores them.  Nothing is
// changed when any entry is rejected
func (scene Scene) Apply(state *AnimationState, logger logxi.Logger) (err error) {
	if logger == nil {
		logger = logxi.NullLog
	}

	resolved := make([]Descriptor, len(scene))
	for i, entry := range scene {
		if entry.Repeat < 0 {
			return errors.Wrapf(ErrInvalidDescriptor, "scene entry %d repeat %d", i, entry.Repeat)
		}
		var current Descriptor
		if entry.Repeat == 0 {
			current, err = state.Get(entry.Index)
		} else {
			current, err = state.strideBase(entry.Index, entry.Repeat)
		}
		if err != nil {
			return errors.Wrapf(err, "scene entry %d", i)
		}
		if resolved[i], err = DescriptorFromPixel(entry.Apply(PixelFromDescriptor(current))); err != nil {
			return errors.Wrapf(err, "scene entry %d", i)
		}
	}

	for i, entry := range scene {
		if entry.Repeat == 0 {
			err = state.SetPixel(entry.Index, resolved[i])
		} else {
			_, err = state.SetPixelsWithStride(entry.Index, entry.Repeat, resolved[i])
		}
		if err != nil {
			return errors.Wrapf(err, "scene entry %d", i)
		}
		logger.Debug("scene", "pixel", entry.Index, "repeat", entry.Repeat, "modifier", resolved[i].Modifier.String())
	}
	return nil
}
