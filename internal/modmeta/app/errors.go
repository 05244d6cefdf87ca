package app

import "errors"

var (
	// ErrArchiveNotFound は指定されたパッケージファイルが存在しない場合のエラー
	ErrArchiveNotFound = errors.New("指定されたパッケージファイルが見つかりません")

	// ErrNoPakFile は.pakファイルが見つからない場合のエラー
	ErrNoPakFile = errors.New(".pakファイルが見つかりません。--archive フラグでファイルを指定してください")

	// ErrExtract はメタデータの取り出しに失敗したパッケージがある場合のエラー
	ErrExtract = errors.New("メタデータを取り出せなかったパッケージがあります")

	// ErrRender は出力の生成に失敗した場合のエラー
	ErrRender = errors.New("出力の生成に失敗しました")

	// ErrSaveFile はファイルの保存に失敗した場合のエラー
	ErrSaveFile = errors.New("ファイルの保存に失敗しました")
)
