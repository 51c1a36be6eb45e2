package entity

// APODEntry は NASA APOD API から取得する 1 日 1 件の天体画像レコードを表す構造体です。
// raw ファイルにはレスポンスをそのまま保存するため、この型はログ出力と検証にのみ使用します。
type APODEntry struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
}
