package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"wxbatch/pkg/batch/util/exception"
)

// Manifest はステージ間の明示的なハンドオフを表す構造体です。
// Extract が作成し、Transform がステージファイルのパスを追記し、各ステージが入力解決に使用します。
// マニフェストが存在しない場合、各ステージはファイル名パターンによる最新ファイル選択へ
// フォールバックします (従来の暗黙的な受け渡し規約)。
type Manifest struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	RawWeatherPath string    `json:"raw_weather_path"`
	APODPath       string    `json:"apod_path,omitempty"`
	StagedPath     string    `json:"staged_path,omitempty"`
}

// New は新しいランの Manifest を作成します。RunID には UUID を割り当てます。
func New() *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Load は指定パスからマニフェストを読み込みます。
// ファイルが存在しない場合は KindNotFound のエラーを返します (呼び出し側でフォールバック可能)。
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exception.NewBatchError("manifest", "マニフェストファイルが存在しません: "+path, err, exception.KindNotFound)
		}
		return nil, exception.NewBatchError("manifest", "マニフェストファイルの読み込みに失敗しました: "+path, err, exception.KindGeneric)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, exception.NewBatchError("manifest", "マニフェストのパースに失敗しました: "+path, err, exception.KindSchema)
	}
	return &m, nil
}

// Save はマニフェストを指定パスへ書き込みます。
// 一時ファイルに書いてからリネームし、途中で失敗しても壊れたマニフェストを残しません。
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return exception.NewBatchError("manifest", "マニフェストのエンコードに失敗しました", err, exception.KindGeneric)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return exception.NewBatchError("manifest", "マニフェストの書き込みに失敗しました: "+tmp, err, exception.KindGeneric)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return exception.NewBatchError("manifest", "マニフェストのリネームに失敗しました: "+path, err, exception.KindGeneric)
	}
	return nil
}

// LatestByPattern はディレクトリ内でパターンに一致する最新のファイルパスを返します。
// ファイル名に埋め込まれたタイムスタンプが辞書順にソート可能であることを前提とします。
// 一致するファイルが無い場合は KindNotFound のエラーを返します。
func LatestByPattern(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", exception.NewBatchError("manifest", "ファイルパターンの評価に失敗しました: "+pattern, err, exception.KindGeneric)
	}
	if len(matches) == 0 {
		return "", exception.NewBatchErrorf("manifest", exception.KindNotFound,
			"パターン '%s' に一致するファイルが %s に存在しません", pattern, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
