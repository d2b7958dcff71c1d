package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/league --output domain/league --outpkg leaguemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ClaimRepository --dir ../domain/waiver --output domain/waiver --outpkg waivermock --filename claim_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name PassRepository --dir ../domain/waiver --output domain/waiver --outpkg waivermock --filename pass_repository_mock.go
