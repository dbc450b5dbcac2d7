package fetch

import (
	"fmt"

	"github.com/jfrog/build-info-go/entities"
	"github.com/jfrog/jfrog-cli-hf-datasets/datasets/commands/hub"
	buildUtils "github.com/jfrog/jfrog-cli-core/v2/common/build"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const datasetModuleType = "dataset"

// collectBuildInfo records the downloaded assets as dependencies of the configured build.
// The build info is saved locally and published later with `jf rt bp`.
func (fc *FetchCommand) collectBuildInfo(datasetId hub.DatasetId, localFiles []hub.LocalFile) error {
	if fc.buildConfiguration == nil {
		return nil
	}
	isCollectBuildInfo, err := fc.buildConfiguration.IsCollectBuildInfo()
	if err != nil {
		return errorutils.CheckError(err)
	}
	if !isCollectBuildInfo {
		return nil
	}
	log.Info("Collecting build info for dataset", datasetId.String())
	buildName, err := fc.buildConfiguration.GetBuildName()
	if err != nil {
		return errorutils.CheckError(err)
	}
	buildNumber, err := fc.buildConfiguration.GetBuildNumber()
	if err != nil {
		return errorutils.CheckError(err)
	}
	project := fc.buildConfiguration.GetProject()
	buildInfoService := buildUtils.CreateBuildInfoService()
	build, err := buildInfoService.GetOrCreateBuildWithProject(buildName, buildNumber, project)
	if err != nil {
		return fmt.Errorf("failed to create build info: %w", err)
	}
	buildInfo, err := build.ToBuildInfo()
	if err != nil {
		return fmt.Errorf("failed to build info: %w", err)
	}
	dependencies := ToBuildDependencies(localFiles)
	if len(dependencies) == 0 {
		return nil
	}
	moduleId := datasetId.String()
	if fc.buildConfiguration.GetModule() != "" {
		moduleId = fc.buildConfiguration.GetModule()
	}
	buildInfo.Modules = appendModuleDependencies(buildInfo.Modules, moduleId, dependencies)
	if err = buildUtils.SaveBuildInfo(buildName, buildNumber, project, buildInfo); err != nil {
		log.Warn("Failed to save build info:", err.Error())
		return err
	}
	log.Info("Build info saved locally. Use 'jf rt bp", buildName, buildNumber+"' to publish it to Artifactory.")
	return nil
}

// ToBuildDependencies converts downloaded files to build-info dependencies keyed by their repository path.
func ToBuildDependencies(localFiles []hub.LocalFile) []entities.Dependency {
	dependencies := make([]entities.Dependency, 0, len(localFiles))
	for _, localFile := range localFiles {
		dependencies = append(dependencies, entities.Dependency{
			Id:   localFile.Remote.Path,
			Type: assetKind(localFile.Remote.Path),
			Checksum: entities.Checksum{
				Sha1:   localFile.Sha1,
				Md5:    localFile.Md5,
				Sha256: localFile.Sha256,
			},
		})
	}
	return dependencies
}

func appendModuleDependencies(modules []entities.Module, moduleId string, dependencies []entities.Dependency) []entities.Module {
	for i := range modules {
		if modules[i].Id == moduleId {
			modules[i].Dependencies = append(modules[i].Dependencies, dependencies...)
			return modules
		}
	}
	return append(modules, entities.Module{
		Type:         entities.ModuleType(datasetModuleType),
		Id:           moduleId,
		Dependencies: dependencies,
	})
}
