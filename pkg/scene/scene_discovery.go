package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene name matches neither a built-in
// scene nor a JSON scene file
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to JSON file (json type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtInGroup = "Built-in Scenes"

// builtIn describes one scene compiled into the binary
type builtIn struct {
	info  SceneInfo
	build func(...renderer.CameraConfig) *Scene
}

var builtIns = []builtIn{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			Description: "Red glass sphere and mirror sphere on a checkerboard under a half-mirror ceiling",
		},
		build: NewDefaultScene,
	},
	{
		info: SceneInfo{
			ID:          "corridor",
			Name:        "Mirror Corridor",
			Description: "Two facing mirrors that run rays into the recursion limit",
		},
		build: NewCorridorScene,
	},
	{
		info: SceneInfo{
			ID:          "glass",
			Name:        "Glass Spheres",
			Description: "Spheres of water, crown glass and diamond in front of a matte wall",
		},
		build: NewGlassScene,
	},
	{
		info: SceneInfo{
			ID:          "soft-shadows",
			Name:        "Soft Shadows",
			Description: "A grid of point lights casting fractional shadows",
		},
		build: NewSoftShadowsScene,
	},
}

// Names returns the IDs of the built-in scenes in display order
func Names() []string {
	names := make([]string, len(builtIns))
	for i, b := range builtIns {
		names[i] = b.info.ID
	}
	return names
}

// ByName creates a scene by built-in ID, by "json:<name>" for a file in the
// scenes directory, or by a path to a .json file
func ByName(name string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	for _, b := range builtIns {
		if b.info.ID == name {
			return b.build(cameraOverrides...), nil
		}
	}

	if strings.HasPrefix(name, "json:") {
		scenesDir := findScenesDir()
		if scenesDir == "" {
			return nil, fmt.Errorf("%w: %q (no scenes directory)", ErrUnknownScene, name)
		}
		name = filepath.Join(scenesDir, strings.TrimPrefix(name, "json:")+".json")
	}

	if strings.HasSuffix(name, ".json") {
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownScene, err)
		}
		return NewJSONScene(name, cameraOverrides...)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// findScenesDir returns the first scenes directory found, or "" when none exists
func findScenesDir() string {
	// Try different possible paths for scenes directory
	for _, path := range []string{"scenes", "../scenes"} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListJSONScenes scans the scenes directory and returns discovered JSON scenes
func ListJSONScenes() ([]SceneInfo, error) {
	scenesDir := findScenesDir()
	if scenesDir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(scenesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseJSONMetadata(filePath)
		if err != nil {
			// Skip files that do not parse; they cannot be rendered either
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseJSONMetadata extracts listing metadata from a JSON scene file
func ParseJSONMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	desc, err := loaders.LoadScene(filePath)
	if err != nil {
		return SceneInfo{}, err
	}

	name := desc.Name
	if name == nameWithoutExt {
		name = titleCase(nameWithoutExt)
	}
	group := desc.Group
	if group == "" {
		group = "JSON Scenes"
	}

	return SceneInfo{
		ID:          "json:" + nameWithoutExt,
		Name:        name,
		DisplayName: name,
		Description: desc.Description,
		Group:       group,
		Type:        "json",
		FilePath:    filePath,
	}, nil
}

// ListAllScenes returns both built-in and JSON scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	var allScenes []SceneInfo
	for _, b := range builtIns {
		info := b.info
		info.DisplayName = info.Name
		info.Group = builtInGroup
		info.Type = "builtin"
		allScenes = append(allScenes, info)
	}

	jsonScenes, err := ListJSONScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list JSON scenes: %w", err)
	}
	allScenes = append(allScenes, jsonScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Create ordered groups (Built-in first, then alphabetical)
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: group})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "hall-of-mirrors" -> "Hall Of Mirrors"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
