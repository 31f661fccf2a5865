package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/lwoexport/asset/lwo"
	"github.com/achilleasa/lwoexport/asset/scene"
	"github.com/achilleasa/lwoexport/asset/texture"
	"github.com/achilleasa/lwoexport/log"
)

const lwoExtension = ".lwo"

// A planned output file and the objects that are encoded into it.
type File struct {
	Path    string
	Objects []*scene.Object
}

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write the planned files and return the paths that were written.
	Write([]File) ([]string, error)
}

// Append the .lwo extension to filename unless it is already present.
func OutputPath(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), lwoExtension) {
		return filename
	}
	return filename + lwoExtension
}

// Get the output path for an object exported in batch mode.
func BatchPath(filename, objectName string) string {
	dir := filepath.Dir(OutputPath(filename))
	return filepath.Join(dir, strings.Replace(objectName, ".", "_", -1)+lwoExtension)
}

// Plan the files generated for a scene. In batch mode each selected mesh
// object gets its own file; otherwise all selected objects are written to
// a single file. An empty selection exports every mesh object.
func Plan(sc *scene.Scene, filename string, opts lwo.Options, selection ...string) ([]File, error) {
	objects := sc.MeshObjects(selection...)
	if len(objects) == 0 {
		return nil, errors.New("writer: no mesh objects selected for export")
	}

	if !opts.Batch {
		return []File{{Path: OutputPath(filename), Objects: objects}}, nil
	}

	files := make([]File, 0, len(objects))
	seen := make(map[string]string)
	for _, obj := range objects {
		path := BatchPath(filename, obj.Name)
		if other, exists := seen[path]; exists {
			return nil, fmt.Errorf("writer: objects %q and %q map to the same file %q", other, obj.Name, path)
		}
		seen[path] = obj.Name
		files = append(files, File{Path: path, Objects: []*scene.Object{obj}})
	}
	return files, nil
}

type lwoSceneWriter struct {
	logger        log.Logger
	opts          lwo.Options
	probeTextures bool
}

func newLwoSceneWriter(opts lwo.Options, probeTextures bool) *lwoSceneWriter {
	return &lwoSceneWriter{
		logger:        log.New("lwo writer"),
		opts:          opts,
		probeTextures: probeTextures,
	}
}

// Write each planned file. A failing file does not prevent the remaining
// files from being written; all failures are reported in the returned error.
func (w *lwoSceneWriter) Write(files []File) ([]string, error) {
	written := make([]string, 0, len(files))
	var errs []error
	for _, f := range files {
		if err := w.writeFile(f); err != nil {
			w.logger.Errorf("could not write %q: %s", f.Path, err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
			continue
		}
		written = append(written, f.Path)
	}

	return written, errors.Join(errs...)
}

func (w *lwoSceneWriter) writeFile(f File) error {
	w.logger.Noticef(`writing %d object(s) to "%s"`, len(f.Objects), f.Path)
	start := time.Now()

	doc, err := lwo.Encode(f.Objects, w.opts)
	if err != nil {
		return err
	}
	w.logger.Debugf("chunk summary for %q:\n%s", f.Path, doc.Stats())

	if w.probeTextures {
		w.probeClips(doc.Clips)
	}

	out, err := os.Create(f.Path)
	if err != nil {
		return err
	}

	_, err = doc.WriteTo(out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Path)
		return err
	}

	w.logger.Noticef("wrote %d bytes in %d ms", doc.Size(), time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Probe the images referenced by clips and log their dimensions.
func (w *lwoSceneWriter) probeClips(clips []lwo.Clip) {
	locations := make([]string, len(clips))
	for index, clip := range clips {
		locations[index] = clip.Source
		if locations[index] == "" {
			locations[index] = clip.Path
		}
	}

	for index, info := range texture.ProbeAll(locations) {
		if info == nil {
			continue
		}
		w.logger.Infof("clip %d: %s (%s, %s, %dx%d)", clips[index].ID, clips[index].Path, info.Codec, info.Format, info.Width, info.Height)
	}
}

// Write scene to one or more LWO2 files and return the paths of the
// files that were written.
func WriteScene(sc *scene.Scene, filename string, opts lwo.Options, probeTextures bool, selection ...string) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	files, err := Plan(sc, filename, opts, selection...)
	if err != nil {
		return nil, err
	}

	return newLwoSceneWriter(opts, probeTextures).Write(files)
}
